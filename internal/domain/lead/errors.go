package lead

import "errors"

var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrUnknownStatus      = errors.New("unknown status")
	ErrUnknownSource      = errors.New("unknown source")
	ErrUnknownTag         = errors.New("unknown tag")
	ErrTagOperation       = errors.New("tags require a tag operation")
	ErrEmptyUpdate        = errors.New("update carries no changes")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
