package deploy

const (
	DEV     = "dev"
	STAGE   = "stage"
	PREPROD = "preprod"
	PROD    = "prod"
)
