package services

// User-facing messages. Persistence causes are logged, never returned.
const (
	msgDuplicate     = "You have already submitted a registration recently. Our team will contact you soon!"
	msgNotFound      = "Registration not found"
	msgInvalidStatus = "Status must be one of new, contacted, enrolled, closed"
	msgSubmitFailed  = "Something went wrong. Please try again later."
	msgListFailed    = "Failed to fetch registrations"
	msgUpdateFailed  = "Failed to update registration"
)
