package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for newly hashed credentials.
const (
	defaultTime    uint32 = 3
	defaultMemory  uint32 = 64 * 1024 // KiB
	defaultThreads uint8  = 1
	defaultSaltLen uint32 = 16
	defaultKeyLen  uint32 = 32
	phcAlg                = "argon2id"
	phcVersion            = 19
)

// PlainPrefix marks a degraded credential stored in clear text. It exists for
// demo registries and test fixtures only; HashCredential never produces it.
const PlainPrefix = "plain:"

// HashCredential derives an Argon2id hash and returns a PHC-formatted string:
// $argon2id$v=19$m=65536,t=3,p=1$<saltB64>$<hashB64>
func HashCredential(plain string) (string, error) {
	salt := make([]byte, defaultSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(plain), salt, defaultTime, defaultMemory, defaultThreads, defaultKeyLen)
	phc := fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlg, phcVersion, defaultMemory, defaultTime, defaultThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	)
	return phc, nil
}

// VerifyCredential checks plain against a stored verifier. PHC strings are
// verified with a constant-time comparison of the derived key; verifiers
// carrying PlainPrefix compare directly.
func VerifyCredential(stored, plain string) bool {
	if rest, ok := strings.CutPrefix(stored, PlainPrefix); ok {
		return subtle.ConstantTimeCompare([]byte(rest), []byte(plain)) == 1
	}
	params, salt, sum, err := parsePHC(stored)
	if err != nil {
		return false
	}
	calc := argon2.IDKey([]byte(plain), salt, params.time, params.memory, params.threads, uint32(len(sum)))
	return subtle.ConstantTimeCompare(calc, sum) == 1
}

type phcParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

func parsePHC(phc string) (phcParams, []byte, []byte, error) {
	if !strings.HasPrefix(phc, "$") {
		return phcParams{}, nil, nil, errors.New("invalid phc: missing prefix")
	}
	// "", alg, v=19, params, salt, hash
	parts := strings.Split(phc, "$")
	if len(parts) < 6 {
		return phcParams{}, nil, nil, errors.New("invalid phc: parts")
	}
	if parts[1] != phcAlg {
		return phcParams{}, nil, nil, fmt.Errorf("unsupported alg: %s", parts[1])
	}
	if strings.HasPrefix(parts[2], "v=") {
		v, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
		if err != nil || v != phcVersion {
			return phcParams{}, nil, nil, fmt.Errorf("unsupported version: %s", parts[2])
		}
	} else {
		return phcParams{}, nil, nil, errors.New("invalid phc: version")
	}
	var pp phcParams
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "m":
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				pp.memory = uint32(n)
			}
		case "t":
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				pp.time = uint32(n)
			}
		case "p":
			if n, err := strconv.ParseUint(v, 10, 8); err == nil {
				pp.threads = uint8(n)
			}
		}
	}
	if pp.memory == 0 || pp.time == 0 || pp.threads == 0 {
		return phcParams{}, nil, nil, errors.New("invalid phc: params")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return phcParams{}, nil, nil, errors.New("invalid phc: salt")
	}
	sum, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(sum) == 0 {
		return phcParams{}, nil, nil, errors.New("invalid phc: hash")
	}
	return pp, salt, sum, nil
}
