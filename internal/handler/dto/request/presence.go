package request

import "palco/internal/usecase"

type CheckInRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	PhotoURL  string   `json:"photo_url" binding:"required"`
}

func (r CheckInRequest) ToCommand() usecase.CheckInCommand {
	return usecase.CheckInCommand{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		PhotoURL:  r.PhotoURL,
	}
}

type CheckOutRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (r CheckOutRequest) ToCommand() usecase.CheckOutCommand {
	return usecase.CheckOutCommand{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

type ValidateArrivalRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}
