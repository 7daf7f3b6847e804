package core

import "github.com/tdfffffffff/bto-housing-management-system/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Person             = domain.Person
	Project            = domain.Project
	Application        = domain.Application
	Registration       = domain.Registration
	Receipt            = domain.Receipt
	FlatType           = domain.FlatType
	ProjectFilter      = domain.ProjectFilter
	WithdrawalOutcome  = domain.WithdrawalOutcome
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	RulesEngine        = domain.RulesEngine
)

const (
	EntityPerson       = domain.EntityPerson
	EntityProject      = domain.EntityProject
	EntityApplication  = domain.EntityApplication
	EntityRegistration = domain.EntityRegistration
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
