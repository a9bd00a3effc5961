package staff

import (
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/platform/middleware"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
)

// JWTServiceAdapter bridges the token service to the middleware's validator
// interface so the middleware package stays free of jwt internals.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.StaffClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	staffID, err := id.ParseStaffID(claims.StaffID)
	if err != nil {
		return nil, err
	}
	return &middleware.StaffClaims{
		StaffID:   staffID,
		StaffName: claims.StaffName,
	}, nil
}
