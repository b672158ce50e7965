package approval

import "github.com/workdeskhq/workdesk/internal"

// CreateRequestDTO is the request payload for opening a review ticket.
type CreateRequestDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssetURL    string `json:"asset_url"`
}

func (dto CreateRequestDTO) Validate() error {
	if dto.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// DecideRequestDTO carries a reviewer's decision.
type DecideRequestDTO struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (dto DecideRequestDTO) Validate() error {
	if !IsValidDecision(dto.Status) {
		return internal.NewValidationFieldError("status", "status must be APPROVED, REJECTED or CHANGES_REQUESTED", internal.ErrCodeInvalidStatus)
	}
	if dto.Status != StatusApproved && dto.Note == "" {
		return internal.NewValidationFieldError("note", "a note is required when not approving", internal.ErrCodeValidationFailed)
	}
	return nil
}
