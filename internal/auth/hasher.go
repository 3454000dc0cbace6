// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// DefaultBcryptCost is the work factor used for new password hashes.
const DefaultBcryptCost = 10

// Hasher algorithm names accepted by NewHasher.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errutil.Validation("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A malformed hash never
	// matches and is not an error.
	Verify(password, hash string) bool

	// Rehash hashes password with an explicit work factor and a fresh salt.
	Rehash(password string, cost int) (string, error)

	// NeedsUpgrade returns true if hash was produced with weaker parameters
	// or a different algorithm than this hasher uses for new hashes.
	NeedsUpgrade(hash string) bool
}

// NewHasher returns an AdaptiveHasher whose new hashes use algorithm. cost
// applies to bcrypt only.
func NewHasher(algorithm string, cost int) (*AdaptiveHasher, error) {
	var primary PasswordHasher
	switch algorithm {
	case "", AlgorithmBcrypt:
		h, err := NewBcryptHasher(cost)
		if err != nil {
			return nil, err
		}
		primary = h
	case AlgorithmArgon2id:
		primary = NewArgon2idHasher()
	default:
		return nil, oops.Code("AUTH_HASHER_UNKNOWN").
			With("algorithm", algorithm).
			Errorf("unknown password hashing algorithm %q", algorithm)
	}
	return NewAdaptiveHasher(primary), nil
}

// AdaptiveHasher hashes with a primary hasher but verifies bcrypt and
// argon2id hashes alike, picking the algorithm from the hash prefix. After
// the configured algorithm changes, existing credentials still verify and
// NeedsUpgrade reports them for rehashing.
type AdaptiveHasher struct {
	primary PasswordHasher
	bcrypt  *BcryptHasher
	argon2  *Argon2idHasher
}

// NewAdaptiveHasher wraps primary.
func NewAdaptiveHasher(primary PasswordHasher) *AdaptiveHasher {
	return &AdaptiveHasher{
		primary: primary,
		bcrypt:  &BcryptHasher{cost: DefaultBcryptCost},
		argon2:  NewArgon2idHasher(),
	}
}

// Primary returns the hasher used for new hashes.
func (h *AdaptiveHasher) Primary() PasswordHasher {
	return h.primary
}

// Hash hashes password with the primary hasher.
func (h *AdaptiveHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

// Rehash hashes password with the primary hasher at cost.
func (h *AdaptiveHasher) Rehash(password string, cost int) (string, error) {
	return h.primary.Rehash(password, cost)
}

// Verify checks password against a hash of any supported algorithm.
func (h *AdaptiveHasher) Verify(password, hash string) bool {
	switch {
	case isBcryptHash(hash):
		return h.bcrypt.Verify(password, hash)
	case isArgon2idHash(hash):
		return h.argon2.Verify(password, hash)
	default:
		return false
	}
}

// NeedsUpgrade defers to the primary hasher.
func (h *AdaptiveHasher) NeedsUpgrade(hash string) bool {
	return h.primary.NeedsUpgrade(hash)
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. A zero cost selects DefaultBcryptCost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if err := checkBcryptCost(cost); err != nil {
		return nil, err
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the work factor used for new hashes.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	return h.Rehash(password, h.cost)
}

// Rehash hashes password at the given cost with a fresh salt.
func (h *BcryptHasher) Rehash(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := checkBcryptCost(cost); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		// bcrypt errors never echo the input, so wrapping is safe.
		return "", oops.Code("AUTH_HASH_FAILED").With("cost", cost).Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the hash.
func (h *BcryptHasher) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsUpgrade returns true for non-bcrypt hashes and bcrypt hashes below the configured cost.
func (h *BcryptHasher) NeedsUpgrade(hash string) bool {
	if !isBcryptHash(hash) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.cost
}

func checkBcryptCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return oops.Code("AUTH_HASH_COST_INVALID").
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func isArgon2idHash(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}

var (
	_ PasswordHasher = (*BcryptHasher)(nil)
	_ PasswordHasher = (*Argon2idHasher)(nil)
	_ PasswordHasher = (*AdaptiveHasher)(nil)
)
