package validators

type RefundRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,min=1"`
	Reason      string `json:"reason" validate:"omitempty,max=500"`
}

func ValidateRefund(req *RefundRequest) ValidationErrors {
	errors := ValidateStruct(req)

	req.Reason = SanitizeInput(req.Reason)

	return errors
}
