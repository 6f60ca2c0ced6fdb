package booking

type Status string

const (
	StatusPending    Status = "PENDENTE"
	StatusAccepted   Status = "ACEITO"
	StatusConfirmed  Status = "CONFIRMADO"
	StatusInProgress Status = "EM_ANDAMENTO"
	StatusCompleted  Status = "CONCLUIDO"
	StatusCanceled   Status = "CANCELADO"
	StatusDisputed   Status = "DISPUTA"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCanceled, StatusDisputed:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCanceled},
	StatusAccepted:   {StatusConfirmed, StatusCanceled},
	StatusConfirmed:  {StatusInProgress, StatusCanceled},
	StatusInProgress: {StatusCompleted, StatusDisputed},
	StatusDisputed:   {StatusCompleted, StatusCanceled},
}

// CanTransitionTo reports whether next is a legal edge from s.
// The check-in rejection revert (EM_ANDAMENTO back to CONFIRMADO) is handled
// as an explicit exception by the presence flow, not through this table.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDENTE"
	PaymentConfirmed PaymentStatus = "CONFIRMADO"
	PaymentRefunded  PaymentStatus = "REEMBOLSADO"
	PaymentFailed    PaymentStatus = "FALHADO"
)

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentConfirmed, PaymentRefunded, PaymentFailed:
		return true
	default:
		return false
	}
}
