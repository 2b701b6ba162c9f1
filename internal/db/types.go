package db

const (
	ACCOUNT_KIND_COVERED_CALL = "covered_call"

	COVERED_CALL_STATUS_OPEN = "open"
)
