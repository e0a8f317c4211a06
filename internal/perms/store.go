// Package perms stores permission grants in an in-memory SQLite index and
// answers permission checks for session participants.
//
// A grant targets a subject (a player name, or DefaultSubject for everyone)
// and a node. Nodes are dot-separated; "a.b.*" grants every node below
// "a.b", and "*" grants everything. The most specific matching grant wins.
// At equal specificity a subject grant beats a default grant and a deny beats
// an allow.
package perms

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// DefaultSubject is the subject whose grants apply to every player.
const DefaultSubject = "*"

//go:embed schema.sql
var schemaSQL string

// Store answers permission checks from a grant table.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open creates an empty in-memory store.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open grant index: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create grant schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Grant allows node for subject, replacing any earlier grant of the same node.
func (s *Store) Grant(subject, node string) error {
	return s.put(subject, node, true)
}

// Deny forbids node for subject, replacing any earlier grant of the same node.
func (s *Store) Deny(subject, node string) error {
	return s.put(subject, node, false)
}

// Apply grants each entry of nodes to subject. Entries starting with "-" are
// denied instead.
func (s *Store) Apply(subject string, nodes []string) error {
	for _, n := range nodes {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		var err error
		if strings.HasPrefix(n, "-") {
			err = s.Deny(subject, n[1:])
		} else {
			err = s.Grant(subject, n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) put(subject, node string, allow bool) error {
	subject = strings.ToLower(strings.TrimSpace(subject))
	node = strings.ToLower(strings.TrimSpace(node))
	if subject == "" || node == "" {
		return fmt.Errorf("grant needs a subject and a node")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO grants (subject, node, allow) VALUES (?, ?, ?)
		 ON CONFLICT (subject, node) DO UPDATE SET allow = excluded.allow`,
		subject, node, boolToInt(allow),
	)
	if err != nil {
		return fmt.Errorf("store grant %s %s: %w", subject, node, err)
	}
	return nil
}

// Revoke removes the grant of node for subject, if any.
func (s *Store) Revoke(subject, node string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM grants WHERE subject = ? AND node = ?`,
		strings.ToLower(subject), strings.ToLower(node))
	return err
}

// Has reports whether subject holds node. Lookup failures deny.
func (s *Store) Has(subject, node string) bool {
	ok, err := s.Check(subject, node)
	return err == nil && ok
}

// Check is Has with the lookup error exposed.
func (s *Store) Check(subject, node string) (bool, error) {
	subject = strings.ToLower(subject)
	candidates := Candidates(strings.ToLower(node))

	args := make([]any, 0, len(candidates)+2)
	args = append(args, subject, DefaultSubject)
	placeholders := make([]string, len(candidates))
	for i, c := range candidates {
		placeholders[i] = "?"
		args = append(args, c)
	}

	query := `SELECT subject, node, allow FROM grants
		WHERE subject IN (?, ?) AND node IN (` + strings.Join(placeholders, ", ") + `)`

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return false, fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	rank := make(map[string]int, len(candidates))
	for i, c := range candidates {
		rank[c] = len(candidates) - i
	}

	best, bestScore := false, -1
	for rows.Next() {
		var (
			subj, n string
			allow   int
		)
		if err := rows.Scan(&subj, &n, &allow); err != nil {
			return false, fmt.Errorf("scan grant: %w", err)
		}
		// Specificity first, then subject over default, then deny over allow.
		score := rank[n] * 4
		if subj == subject && subject != DefaultSubject {
			score += 2
		}
		if allow == 0 {
			score++
		}
		if score > bestScore {
			best, bestScore = allow != 0, score
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("read grants: %w", err)
	}
	return best, nil
}

// Candidates returns the nodes that can grant node, most specific first:
// node itself, each ancestor wildcard, and "*".
func Candidates(node string) []string {
	parts := strings.Split(node, ".")
	out := []string{node}
	for i := len(parts) - 1; i > 0; i-- {
		out = append(out, strings.Join(parts[:i], ".")+".*")
	}
	return append(out, "*")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
