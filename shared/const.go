package shared

const (
	UserID   = "user_id"
	UserRole = "user_role"

	RoleLearner = "learner"
	RoleAcademy = "academy"
	RoleAdmin   = "admin"

	// Access decision reason codes
	ReasonOwnerAccess = "OWNER_ACCESS"
	ReasonFreePreview = "FREE_PREVIEW"
	ReasonEnrolled    = "ENROLLED"
	ReasonTokenGrant  = "TOKEN_GRANT" // stream admitted by a minted token

	EnrollmentActive = "active"
)
