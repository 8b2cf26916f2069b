package http

import (
	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/pkg/lmssdk"
)

func toSDKUser(u domain.User) lmssdk.User {
	out := lmssdk.User{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		Courses:    make([]lmssdk.CourseRef, 0, len(u.Courses)),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.Avatar != nil {
		out.Avatar = &lmssdk.Avatar{PublicID: u.Avatar.PublicID, URL: u.Avatar.URL}
	}
	for _, c := range u.Courses {
		out.Courses = append(out.Courses, lmssdk.CourseRef{CourseID: c.CourseID})
	}
	return out
}

func toSDKUsers(users []domain.User) []lmssdk.User {
	out := make([]lmssdk.User, 0, len(users))
	for _, u := range users {
		out = append(out, toSDKUser(u))
	}
	return out
}
