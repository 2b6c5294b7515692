package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"critical-approve/internal/models"
	"critical-approve/internal/services"
	"critical-approve/pkg/approvalErrors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Catalog – action types, their standing approvers and the user directory, as kept in a YAML file
type Catalog struct {
	Users       []User       `yaml:"users"`
	ActionTypes []ActionType `yaml:"action_types"`
}

type User struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Profiles []string `yaml:"profiles"`
	Inactive bool     `yaml:"inactive"`
}

type ActionType struct {
	ID                   string        `yaml:"id"`
	Name                 string        `yaml:"name"`
	Description          string        `yaml:"description"`
	Strategy             string        `yaml:"strategy"`
	MinApprovers         int           `yaml:"min_approvers"`
	AllowSelfApproval    bool          `yaml:"allow_self_approval"`
	AutoApprovalProfiles []string      `yaml:"auto_approval_profiles"`
	EscalationApprovers  []string      `yaml:"escalation_approvers"`
	Supervisors          []string      `yaml:"supervisors"`
	MaxEscalations       int           `yaml:"max_escalations"`
	EscalationInterval   time.Duration `yaml:"escalation_interval"`
	Approvers            []Approver    `yaml:"approvers"`
}

// Approver – standing assignment, either a user or a profile
type Approver struct {
	User    string `yaml:"user"`
	Profile string `yaml:"profile"`
}

func (a ActionType) input() services.ActionTypeInput {
	return services.ActionTypeInput{
		ID:                   a.ID,
		Name:                 a.Name,
		Description:          a.Description,
		Strategy:             models.Strategy(a.Strategy),
		MinApprovers:         a.MinApprovers,
		AllowSelfApproval:    a.AllowSelfApproval,
		AutoApprovalProfiles: a.AutoApprovalProfiles,
		EscalationApprovers:  a.EscalationApprovers,
		Supervisors:          a.Supervisors,
		MaxEscalations:       a.MaxEscalations,
		EscalationInterval:   a.EscalationInterval,
	}
}

// Parse – strict decoding: unknown keys are an error, so a typo does not silently drop a policy field
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

type Registry interface {
	GetPolicy(ctx context.Context, id string) (*models.ActionType, error)
	RegisterActionType(ctx context.Context, in services.ActionTypeInput) (*models.ActionType, error)
	UpdatePolicy(ctx context.Context, id string, in services.ActionTypeInput) (*models.ActionType, error)
	AssignStandingApprover(ctx context.Context, actionTypeID string, who services.Assignee) (*models.Approver, error)
}

type Users interface {
	SaveUser(ctx context.Context, u *models.User) error
}

// Report – what Apply changed
type Report struct {
	Users      int
	Registered int
	Updated    int
	InUse      int
	Assigned   int
}

// Apply – upserts the catalog. Applying the same catalog twice changes nothing the second time,
// except policies of unused action types which are rewritten in place.
func Apply(ctx context.Context, c *Catalog, registry Registry, users Users, log *logrus.Entry) (Report, error) {
	var report Report

	for _, u := range c.Users {
		err := users.SaveUser(ctx, &models.User{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			Profiles: u.Profiles,
			Active:   !u.Inactive,
		})
		if err != nil {
			return report, fmt.Errorf("save user %s: %w", u.ID, err)
		}
		report.Users++
	}

	for _, at := range c.ActionTypes {
		if err := upsert(ctx, registry, at, &report); err != nil {
			return report, fmt.Errorf("action type %s: %w", at.ID, err)
		}
		for _, a := range at.Approvers {
			_, err := registry.AssignStandingApprover(ctx, at.ID, services.Assignee{UserID: a.User, Profile: a.Profile})
			if errors.Is(err, approvalErrors.ErrAlreadyAssigned) {
				continue
			}
			if err != nil {
				return report, fmt.Errorf("assign %s%s to %s: %w", a.User, a.Profile, at.ID, err)
			}
			report.Assigned++
		}
	}

	log.WithFields(logrus.Fields{
		"users":      report.Users,
		"registered": report.Registered,
		"updated":    report.Updated,
		"in_use":     report.InUse,
		"assigned":   report.Assigned,
	}).Info("catalog applied")
	return report, nil
}

func upsert(ctx context.Context, registry Registry, at ActionType, report *Report) error {
	_, err := registry.GetPolicy(ctx, at.ID)
	switch {
	case errors.Is(err, approvalErrors.ErrActionTypeNotFound):
		if _, err := registry.RegisterActionType(ctx, at.input()); err != nil {
			return err
		}
		report.Registered++
		return nil
	case err != nil:
		return err
	}

	_, err = registry.UpdatePolicy(ctx, at.ID, at.input())
	if errors.Is(err, approvalErrors.ErrActionTypeInUse) {
		// policies referenced by requests are immutable; the stored one stays
		report.InUse++
		return nil
	}
	if err != nil {
		return err
	}
	report.Updated++
	return nil
}
