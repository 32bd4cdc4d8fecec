// Package security contains input guards for side-effecting tools.
package security

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrCommandBlocked      = errors.New("command blocked: matches prohibited pattern")
	ErrSensitivePathAccess = errors.New("command blocked: contains sensitive path")
)

// ShellGuard screens shell commands requested by the model before they
// reach the interpreter. The model is an untrusted caller: anything it can
// coax run_command into executing runs with the bot's own privileges.
type ShellGuard struct {
	compiledPatterns []*regexp.Regexp
	literalPatterns  []string
	Enabled          bool
}

var defaultRegexPatterns = []string{
	`curl\s+.*\|\s*(sh|bash|zsh)`,
	`wget\s+.*\|\s*(sh|bash|zsh)`,
	`\|\s*(sh|bash|zsh)\s*$`,
	`bash\s+-i\s+>&\s*/dev/tcp`,
	`nc\s+.*-e\s+(sh|bash|/bin)`,
	`/dev/tcp/`,
	`/dev/udp/`,
	// rm -rf against the filesystem root only
	`rm\s+(-[rf]{1,2}\s+)*(-[rf]{1,2}\s+)*/($|\s|;|\||&)`,
	`rm\s+(-[rf]{1,2}\s+)*(-[rf]{1,2}\s+)*/\*($|\s|;|\||&)`,
	`mkfs(\.[a-z0-9]+)?\s`,
	`dd\s+.*if=/dev/(zero|random|urandom).*of=/dev/[sh]d`,
	`>\s*/dev/[sh]d[a-z]`,
	`chmod\s+(-R\s+)?777\s+/\s*$`,
	`chmod\s+(-R\s+)?777\s+/[a-z]`,
	`:\(\)\s*\{\s*:\|\s*:\s*&\s*\}\s*;\s*:\s*`,
	`base64\s+(-d|--decode)`,
	`\beval\s+`,
	`xargs\s+.*sh\b`,
	`xargs\s+.*bash\b`,
	`\benv\b.*\|\s*\w+`,
	`\bprintenv\b.*\|\s*\w+`,
}

var defaultLiteralPatterns = []string{
	"/etc/shadow",
	"/etc/passwd",
	"~/.ssh/",
	".ssh/id_rsa",
	".ssh/id_ed25519",
	".ssh/id_ecdsa",
	".ssh/authorized_keys",
	".aws/credentials",
	".kube/config",
}

// NewShellGuard returns a guard loaded with the default denylist.
func NewShellGuard() *ShellGuard {
	guard := &ShellGuard{
		compiledPatterns: make([]*regexp.Regexp, 0, len(defaultRegexPatterns)),
		literalPatterns:  make([]string, 0, len(defaultLiteralPatterns)),
		Enabled:          true,
	}

	for _, pattern := range defaultRegexPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err == nil {
			guard.compiledPatterns = append(guard.compiledPatterns, re)
		}
	}

	for _, literal := range defaultLiteralPatterns {
		guard.literalPatterns = append(guard.literalPatterns, strings.ToLower(literal))
	}

	return guard
}

// PermissiveShellGuard returns a guard that allows everything.
func PermissiveShellGuard() *ShellGuard {
	return &ShellGuard{Enabled: false}
}

func (g *ShellGuard) BlockPattern(pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return err
	}
	g.compiledPatterns = append(g.compiledPatterns, re)
	return nil
}

func (g *ShellGuard) BlockLiteral(literal string) {
	g.literalPatterns = append(g.literalPatterns, strings.ToLower(literal))
}

func (g *ShellGuard) ValidateCommand(command string) error {
	if !g.Enabled {
		return nil
	}

	commandLower := strings.ToLower(command)

	for _, pattern := range g.compiledPatterns {
		if pattern.MatchString(command) {
			return ErrCommandBlocked
		}
	}

	for _, literal := range g.literalPatterns {
		if strings.Contains(commandLower, literal) {
			return ErrSensitivePathAccess
		}
	}

	return nil
}

func ValidateCommand(command string) error {
	return NewShellGuard().ValidateCommand(command)
}

func IsSafeCommand(command string) bool {
	return ValidateCommand(command) == nil
}
