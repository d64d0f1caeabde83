package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/schoolhub/internal/app/system/passwords"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.uber.org/zap"
)

// seedTeacher is one entry of the seed file. Exactly one of Password and
// PasswordHash must be set; Password is hashed before it is stored.
type seedTeacher struct {
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	Password     string `json:"password"`
	PasswordHash string `json:"password_hash"`
}

type upserter interface {
	Upsert(ctx context.Context, t models.Teacher) (bool, error)
}

// readSeedFile decodes a JSON array of teachers and checks each entry.
func readSeedFile(r io.Reader) ([]seedTeacher, error) {
	var entries []seedTeacher
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	seen := map[string]bool{}
	var problems []string
	for i, e := range entries {
		e.Username = strings.TrimSpace(e.Username)
		entries[i].Username = e.Username
		switch {
		case e.Username == "":
			problems = append(problems, fmt.Sprintf("entry %d: username is required", i))
		case seen[e.Username]:
			problems = append(problems, fmt.Sprintf("entry %d: duplicate username %q", i, e.Username))
		case (e.Password == "") == (e.PasswordHash == ""):
			problems = append(problems, fmt.Sprintf("entry %d (%s): set exactly one of password, password_hash", i, e.Username))
		}
		seen[e.Username] = true
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return entries, nil
}

// seed hashes plaintext passwords and upserts every entry. It returns how
// many teachers were created and how many replaced.
func seed(ctx context.Context, store upserter, entries []seedTeacher, params passwords.Params, logger *zap.Logger) (created, replaced int, err error) {
	for _, e := range entries {
		hash := e.PasswordHash
		if e.Password != "" {
			hash, err = passwords.HashWithParams(e.Password, params)
			if err != nil {
				return created, replaced, fmt.Errorf("hash password for %s: %w", e.Username, err)
			}
		}

		isNew, err := store.Upsert(ctx, models.Teacher{
			Username:     e.Username,
			DisplayName:  e.DisplayName,
			Role:         e.Role,
			PasswordHash: hash,
		})
		if err != nil {
			return created, replaced, fmt.Errorf("upsert %s: %w", e.Username, err)
		}
		if isNew {
			created++
		} else {
			replaced++
		}
		logger.Info("teacher seeded", zap.String("username", e.Username), zap.Bool("created", isNew))
	}
	return created, replaced, nil
}
