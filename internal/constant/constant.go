package constant

import "time"

const (
	REQUEST_SUCCESSFUL   = "Request successful"
	REQUEST_UNSUCCESSFUL = "Request unsuccessful"
)

const QUERY_TIMEOUT_DURATION = 5 * time.Second

const (
	JWT_TYPE_ACCESS  = "access"
	JWT_TYPE_SERVICE = "service"
)

type TokenRole string

const (
	// Instructors and admins manage sessions and trigger generation.
	TokenRoleInstructor TokenRole = "instructor"
	TokenRoleAdmin      TokenRole = "admin"
)

type DeliveryMode string

const (
	DeliveryNone       DeliveryMode = "none"
	DeliveryIndividual DeliveryMode = "individual"
	DeliveryBundle     DeliveryMode = "bundle"
)

// Multipart form keys
const (
	FORM_TEMPLATE_FILE = "templateFile"
	FORM_CSV_FILE      = "csvFile"
)
