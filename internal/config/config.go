package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ProjectKind = "standup"

// Known digest audiences. Kept in sync with the digest package.
var knownAudiences = map[string]struct{}{
	"stakeholder":     {},
	"team-detailed":   {},
	"sprint-snapshot": {},
}

// Config models dailyline.yml.
type Config struct {
	Project struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	} `yaml:"project"`
	Team struct {
		Members []TeamMember `yaml:"members"`
	} `yaml:"team"`
	Digest DigestConfig `yaml:"digest"`
	RBAC   struct {
		Roles map[string]RBACRole `yaml:"roles"`
	} `yaml:"rbac"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// TeamMember is a person expected to report each day.
// Role is the job role used for routing (ADMIN, PO, DEV...); Access lists RBAC roles.
type TeamMember struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Role   string   `yaml:"role"`
	Access []string `yaml:"access"`
}

type DigestConfig struct {
	DefaultAudience   string `yaml:"default_audience"`
	IncludeReferences bool   `yaml:"include_references"`
	Sprint            struct {
		Name string `yaml:"name"`
		Date string `yaml:"date"`
	} `yaml:"sprint"`
}

type RBACRole struct {
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	Enabled        *bool    `yaml:"enabled"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("config.project.id is required")
	}
	if c.Project.Kind != ProjectKind {
		return fmt.Errorf("config.project.kind must be '%s'", ProjectKind)
	}
	seen := make(map[string]struct{}, len(c.Team.Members))
	for i, m := range c.Team.Members {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return fmt.Errorf("config.team.members[%d].id is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("config.team.members has duplicate id %s", id)
		}
		seen[id] = struct{}{}
		for _, role := range m.Access {
			if role == "" {
				return fmt.Errorf("member %s has empty access role", id)
			}
			if len(c.RBAC.Roles) > 0 {
				if _, ok := c.RBAC.Roles[role]; !ok {
					return fmt.Errorf("member %s references unknown role %s", id, role)
				}
			}
		}
	}
	if a := strings.TrimSpace(c.Digest.DefaultAudience); a != "" {
		if _, ok := knownAudiences[strings.ToLower(a)]; !ok {
			return fmt.Errorf("config.digest.default_audience %q is invalid", a)
		}
	}
	if len(c.RBAC.Roles) > 0 {
		if _, ok := c.RBAC.Roles["owner"]; !ok {
			return fmt.Errorf("config.rbac.roles must include owner")
		}
		for roleID, role := range c.RBAC.Roles {
			if roleID == "" {
				return fmt.Errorf("config.rbac.roles contains empty role id")
			}
			for _, perm := range role.Permissions {
				if perm == "" {
					return fmt.Errorf("role %s has empty permission id", roleID)
				}
			}
		}
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("config.webhooks[%d].timeout_seconds must not be negative", i)
		}
	}
	return nil
}

// Member looks up a team member by id.
func (c *Config) Member(id string) (TeamMember, bool) {
	if c == nil {
		return TeamMember{}, false
	}
	id = strings.TrimSpace(id)
	for _, m := range c.Team.Members {
		if strings.TrimSpace(m.ID) == id {
			return m, true
		}
	}
	return TeamMember{}, false
}

// MemberCount is the number of people expected to report.
func (c *Config) MemberCount() int {
	if c == nil {
		return 0
	}
	return len(c.Team.Members)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "dailyline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(projectID string) string {
	return fmt.Sprintf(defaultTemplate, projectID)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a project.
func Default(projectID string) *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(GenerateDefault(projectID)), &cfg)
	cfg.Project.ID = projectID
	cfg.Project.Kind = ProjectKind
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// ToYAML renders the config back to YAML.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

const defaultTemplate = `project:
  id: %s
  kind: standup

team:
  members: []

digest:
  default_audience: team-detailed
  include_references: false

rbac:
  roles:
    owner:
      description: "Full access to the project"
      permissions: [standup.read, standup.write, standup.write.others, actions.update, events.read, config.read]
    lead:
      description: "Runs the standup and triages actions"
      permissions: [standup.read, standup.write, standup.write.others, actions.update, events.read, config.read]
    member:
      description: "Reports status and works through actions"
      permissions: [standup.read, standup.write, actions.update]
    viewer:
      description: "Reads digests and summaries"
      permissions: [standup.read]
`
