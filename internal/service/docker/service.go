package docker

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"log/slog"

	"github.com/0xAmaan/wander-zero-to-dev/pkg/cmdutil"
)

// ErrInvalidName rejects container names that could smuggle arguments into
// the runtime command line.
var ErrInvalidName = errors.New("invalid container name")

// Docker container names: alphanumeric first char, then [a-zA-Z0-9_.-].
var containerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

const (
	defaultLogLines = 50
	maxLogLines     = 1000
)

// Service reports local container health by shelling out to the container
// runtime and parsing its {{json .}} formatted output. The runtime is an
// external collaborator; anything it reports is passed through as-is.
type Service struct {
	runner     cmdutil.Runner
	command    []string
	nameFilter string
	logger     *slog.Logger
}

// New parses the configured runtime command ("docker", "podman --remote", …)
// and returns a docker status service.
func New(runner cmdutil.Runner, command, nameFilter string, logger *slog.Logger) (Service, error) {
	argv, err := cmdutil.SplitCommand(command)
	if err != nil {
		return Service{}, err
	}
	return Service{runner: runner, command: argv, nameFilter: nameFilter, logger: logger}, nil
}

// ContainerStatus is one container's state merged with its live stats.
type ContainerStatus struct {
	Name          string `json:"name"`
	Status        string `json:"status"`
	Image         string `json:"image"`
	Ports         string `json:"ports"`
	Created       string `json:"created"`
	Uptime        string `json:"uptime"`
	CPU           string `json:"cpu"`
	Memory        string `json:"memory"`
	MemoryPercent string `json:"memoryPercent"`
}

// psEntry mirrors one line of `docker ps --format "{{json .}}"`.
type psEntry struct {
	Names     string `json:"Names"`
	State     string `json:"State"`
	Image     string `json:"Image"`
	Ports     string `json:"Ports"`
	CreatedAt string `json:"CreatedAt"`
	Status    string `json:"Status"`
}

// statsEntry mirrors one line of `docker stats --format "{{json .}}"`.
type statsEntry struct {
	Name     string `json:"Name"`
	CPUPerc  string `json:"CPUPerc"`
	MemUsage string `json:"MemUsage"`
	MemPerc  string `json:"MemPerc"`
}

// Status lists containers matching the configured name filter and merges in
// per-container stats for the running ones. Stats failures degrade to zero
// values rather than failing the whole report.
func (s Service) Status(ctx context.Context) ([]ContainerStatus, error) {
	args := append(s.prefix(), "ps", "-a",
		"--filter", "name="+s.nameFilter,
		"--format", "{{json .}}",
	)
	out, err := s.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	entries, err := parsePS(out)
	if err != nil {
		return nil, err
	}

	statuses := make([]ContainerStatus, 0, len(entries))
	for _, entry := range entries {
		status := ContainerStatus{
			Name:          entry.Names,
			Status:        entry.State,
			Image:         entry.Image,
			Ports:         entry.Ports,
			Created:       entry.CreatedAt,
			Uptime:        entry.Status,
			CPU:           "0%",
			Memory:        "0B / 0B",
			MemoryPercent: "0%",
		}
		if entry.State == "running" {
			if stats, err := s.stats(ctx, entry.Names); err != nil {
				s.logger.Debug("container stats unavailable", "container", entry.Names, "error", err)
			} else {
				status.CPU = stats.CPUPerc
				status.Memory = stats.MemUsage
				status.MemoryPercent = stats.MemPerc
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Logs returns the most recent lines from one container.
func (s Service) Logs(ctx context.Context, name string, lines int) ([]string, error) {
	if !containerNamePattern.MatchString(name) {
		return nil, ErrInvalidName
	}
	if lines <= 0 {
		lines = defaultLogLines
	}
	if lines > maxLogLines {
		lines = maxLogLines
	}
	args := append(s.prefix(), "logs", name, "--tail", strconv.Itoa(lines))
	out, err := s.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(out), "\n"), nil
}

func (s Service) stats(ctx context.Context, name string) (statsEntry, error) {
	args := append(s.prefix(), "stats", name, "--no-stream", "--format", "{{json .}}")
	out, err := s.runner.Run(ctx, args...)
	if err != nil {
		return statsEntry{}, err
	}
	var entry statsEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(out))), &entry); err != nil {
		return statsEntry{}, err
	}
	return entry, nil
}

// prefix copies the command argv so appends never share backing arrays.
func (s Service) prefix() []string {
	return append([]string(nil), s.command...)
}

func parsePS(out []byte) ([]psEntry, error) {
	entries := make([]psEntry, 0)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry psEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
