// Package policy maps newsroom roles to the workflow actions they may request.
// The workflow engine never checks roles itself; callers consult a Policy first.
package policy

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// ErrForbidden is returned when a role may not request an action
var ErrForbidden = errors.New("action not allowed for role")

// Role names used by the newsroom
const (
	RoleAdmin       = "ADMIN"
	RolePublisher   = "PUBLISHER"
	RoleEditor      = "EDITOR"
	RoleAuthor      = "AUTHOR"
	RoleJournalist  = "JOURNALIST"
	RoleColumnist   = "COLUMNIST"
	RoleContributor = "CONTRIBUTOR"
	RoleReporter    = "REPORTER"
	RoleUser        = "USER"
	RoleSystem      = "SYSTEM"
)

// wildcard grants every action
const wildcard = "*"

// Policy is an immutable role to allowed-actions table
type Policy struct {
	roles map[string]map[workflow.Action]bool
}

// file is the on-disk layout of a policy
type file struct {
	Roles map[string][]string `yaml:"roles"`
}

// Default returns the policy the dashboards were built around
func Default() *Policy {
	writer := []string{
		string(workflow.ActionSubmitForReview),
		string(workflow.ActionStartWriting),
	}

	p, err := fromFile(file{Roles: map[string][]string{
		RoleAdmin: {wildcard},
		RolePublisher: {
			string(workflow.ActionApprove),
			string(workflow.ActionReject),
			string(workflow.ActionRequestRevision),
			string(workflow.ActionReturnToWriter),
			string(workflow.ActionSchedule),
			string(workflow.ActionPublish),
			string(workflow.ActionUnpublish),
			string(workflow.ActionRetract),
			string(workflow.ActionArchive),
			string(workflow.ActionSetFeatured),
			string(workflow.ActionSetTrending),
		},
		RoleEditor: {
			string(workflow.ActionSubmitForReview),
			string(workflow.ActionBeginReview),
			string(workflow.ActionRoute),
			string(workflow.ActionApprove),
			string(workflow.ActionRequestRevision),
			string(workflow.ActionReturnToWriter),
		},
		RoleAuthor:      writer,
		RoleJournalist:  writer,
		RoleColumnist:   writer,
		RoleContributor: writer,
		RoleReporter:    writer,
		RoleUser:        {},
		RoleSystem:      {string(workflow.ActionPublish)},
	}})
	if err != nil {
		panic(err)
	}
	return p
}

// Load reads a YAML policy file
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML policy document
func Parse(data []byte) (*Policy, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("policy defines no roles")
	}
	return fromFile(f)
}

func fromFile(f file) (*Policy, error) {
	p := &Policy{roles: make(map[string]map[workflow.Action]bool, len(f.Roles))}

	for role, names := range f.Roles {
		key := normalize(role)
		if key == "" {
			return nil, fmt.Errorf("policy has an empty role name")
		}
		allowed := make(map[workflow.Action]bool)
		for _, name := range names {
			if strings.TrimSpace(name) == wildcard {
				for _, a := range workflow.AllActions() {
					allowed[a] = true
				}
				continue
			}
			action, err := workflow.ParseAction(strings.ToUpper(strings.TrimSpace(name)))
			if err != nil {
				return nil, fmt.Errorf("role %s: %w", role, err)
			}
			allowed[action] = true
		}
		p.roles[key] = allowed
	}

	return p, nil
}

// Allows reports whether the role may request the action
func (p *Policy) Allows(role string, action workflow.Action) bool {
	return p.roles[normalize(role)][action]
}

// Check returns ErrForbidden when the role may not request the action
func (p *Policy) Check(role string, action workflow.Action) error {
	if !p.Allows(role, action) {
		return fmt.Errorf("%w: %s may not %s", ErrForbidden, normalize(role), action)
	}
	return nil
}

// Require fails unless the role may request every listed action
func (p *Policy) Require(role string, actions ...workflow.Action) error {
	for _, a := range actions {
		if err := p.Check(role, a); err != nil {
			return fmt.Errorf("policy must grant %s %s: %w", normalize(role), a, err)
		}
	}
	return nil
}

// Filter keeps the actions the role may request, preserving order
func (p *Policy) Filter(role string, actions []workflow.Action) []workflow.Action {
	out := make([]workflow.Action, 0, len(actions))
	for _, a := range actions {
		if p.Allows(role, a) {
			out = append(out, a)
		}
	}
	return out
}

// Roles returns the configured role names, sorted
func (p *Policy) Roles() []string {
	roles := make([]string, 0, len(p.roles))
	for r := range p.roles {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// IsKnownRole reports whether the role appears in the policy
func (p *Policy) IsKnownRole(role string) bool {
	_, ok := p.roles[normalize(role)]
	return ok
}

func normalize(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}
