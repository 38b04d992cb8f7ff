package model

import (
	"time"
)

const (
	RoleLeader  = "Leader"
	RoleManager = "Manager"
	RoleMember  = "Member"
)

type ProjectMembership struct {
	MembershipID int       `gorm:"column:membership_id;primaryKey;autoIncrement" json:"membership_id"`
	ProjectID    int       `gorm:"column:project_id;not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID       int       `gorm:"column:user_id;not null;uniqueIndex:idx_project_user;index" json:"user_id"`
	Role         string    `gorm:"column:role;type:varchar(20);default:'Member';not null" json:"role"`
	JoinedAt     time.Time `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"user"`
}

func (ProjectMembership) TableName() string {
	return "project_memberships"
}

func ValidProjectRole(r string) bool {
	switch r {
	case RoleLeader, RoleManager, RoleMember:
		return true
	}
	return false
}

// CanManageMembers reports whether the role may add or remove members.
func CanManageMembers(role string) bool {
	return role == RoleLeader || role == RoleManager
}
