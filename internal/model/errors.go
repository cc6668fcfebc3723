package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidRole        = errors.New("invalid role")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Team related errors
	ErrTeamNotFound      = errors.New("team not found")
	ErrAlreadyTeamMember = errors.New("user already on team")

	// Project related errors
	ErrProjectNotFound      = errors.New("project not found")
	ErrInvalidProjectStatus = errors.New("invalid project status")

	// Task related errors
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrNoEligibleAssignee = errors.New("no eligible assignee")

	// Skill related errors
	ErrSkillNotFound      = errors.New("skill not found")
	ErrSkillAlreadyExists = errors.New("skill already exists")
	ErrInvalidProficiency = errors.New("invalid proficiency")

	// Notification related errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Retrospective related errors
	ErrRetrospectiveNotFound = errors.New("retrospective not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
