package auth

import "github.com/BruksfildServices01/agenda-scheduler/internal/models"

// Actor is who is calling into the engine. Every use case receives it
// explicitly instead of looking it up from the request.
type Actor struct {
	AccountID uint
	Role      string
	CompanyID uint
}

// Anonymous is used by public endpoints without a token.
var Anonymous = Actor{}

func (a Actor) IsAuthenticated() bool {
	return a.AccountID != 0
}

func (a Actor) IsOwner() bool {
	return a.Role == models.RoleOwner
}

func (a Actor) IsProfessional() bool {
	return a.Role == models.RoleOwner || a.Role == models.RoleProfessional
}

func (a Actor) IsClient() bool {
	return a.Role == models.RoleClient
}

// System is the actor for scheduled jobs and inbound webhooks.
func System(companyID uint) Actor {
	return Actor{Role: "system", CompanyID: companyID}
}
