/*
Copyright 2025 The CertSentry Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package decoder turns raw CT log entries into certificate records.
//
// A leaf_input decodes to a MerkleTreeLeaf:
//
//	[0]      version       (0)
//	[1]      leaf_type     (0 = timestamped_entry)
//	[2..10)  timestamp     (ignored)
//	[10..12) entry_type    (0 = x509_entry, 1 = precert_entry)
//
// For x509 entries the DER follows a 24-bit big-endian length at
// [12..15). For precert entries the full DER (with the CT poison
// extension) is recovered from extra_data, again behind a 24-bit length.
// DER parsing uses the lenient certificate-transparency-go x509 fork, so
// the many slightly malformed certificates in public logs still yield
// their domains.
package decoder

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	ctx509 "github.com/google/certificate-transparency-go/x509"

	"github.com/certsentry/certsentry/pkg/certsentry/ctlog"
)

const (
	entryTypeX509    = 0
	entryTypePrecert = 1

	// leafHeaderLen covers version, leaf_type, timestamp and entry_type.
	leafHeaderLen = 12
	// x509LeafMinLen additionally covers the 24-bit DER length.
	x509LeafMinLen = 15
)

// ErrTruncated marks a leaf too short to hold the next length field.
var ErrTruncated = errors.New("truncated leaf")

// ErrPrecertSkipped marks a precert entry seen while precert parsing is
// disabled. Callers drop these silently.
var ErrPrecertSkipped = errors.New("precert parsing disabled")

// UnknownEntryTypeError is raised for entry types other than x509 (0)
// and precert (1).
type UnknownEntryTypeError struct {
	Type uint16
}

func (e *UnknownEntryTypeError) Error() string {
	return fmt.Sprintf("unknown entry type %d", e.Type)
}

// Certificate is one decoded log entry, normalized for matching.
type Certificate struct {
	// AllDomains holds the SAN DNS names in certificate order, duplicates
	// preserved; when the SAN list is empty it holds the subject CN alone.
	AllDomains []string
	CertIndex  uint64
	LogURL     string
	SeenAt     time.Time
	// NotBefore and NotAfter are unix seconds.
	NotBefore int64
	NotAfter  int64
	// Fingerprint is the SHA-256 of the DER, lowercase hex.
	Fingerprint string
	// Issuer is the issuer CN, or the full issuer DN when the CN is empty.
	Issuer    string
	IsPrecert bool
}

// Decoder converts raw entries. ParsePrecerts gates precert handling;
// when false, precert entries come back as ErrPrecertSkipped.
type Decoder struct {
	ParsePrecerts bool
}

// Decode extracts a Certificate from one raw entry at the given index.
func (d *Decoder) Decode(entry ctlog.RawEntry, index uint64, logURL string) (*Certificate, error) {
	leaf, err := base64.StdEncoding.DecodeString(entry.LeafInput)
	if err != nil {
		return nil, fmt.Errorf("decoding leaf_input: %w", err)
	}
	if len(leaf) < leafHeaderLen {
		return nil, ErrTruncated
	}

	var der []byte
	var isPrecert bool

	switch entryType := binary.BigEndian.Uint16(leaf[10:12]); entryType {
	case entryTypeX509:
		if len(leaf) < x509LeafMinLen {
			return nil, ErrTruncated
		}
		der = sliceWithLengthPrefix(leaf[12:])

	case entryTypePrecert:
		if !d.ParsePrecerts {
			return nil, ErrPrecertSkipped
		}
		extra, err := base64.StdEncoding.DecodeString(entry.ExtraData)
		if err != nil {
			return nil, fmt.Errorf("decoding extra_data: %w", err)
		}
		if len(extra) < 3 {
			return nil, ErrTruncated
		}
		der = sliceWithLengthPrefix(extra)
		isPrecert = true

	default:
		return nil, &UnknownEntryTypeError{Type: entryType}
	}

	cert, err := fromDER(der)
	if err != nil {
		return nil, err
	}
	cert.CertIndex = index
	cert.LogURL = logURL
	cert.SeenAt = time.Now().UTC()
	cert.IsPrecert = isPrecert
	return cert, nil
}

// sliceWithLengthPrefix reads a 24-bit big-endian length and returns the
// bytes that follow, clamped to the buffer so truncated entries still
// yield whatever DER made it into the log.
func sliceWithLengthPrefix(buf []byte) []byte {
	length := int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])
	rest := buf[3:]
	if length > len(rest) {
		length = len(rest)
	}
	return rest[:length]
}

func fromDER(der []byte) (*Certificate, error) {
	if len(der) == 0 {
		return nil, ErrTruncated
	}

	sum := sha256.Sum256(der)

	parsed, err := ctx509.ParseCertificate(der)
	if err != nil && (parsed == nil || ctx509.IsFatal(err)) {
		return nil, fmt.Errorf("parsing certificate DER: %w", err)
	}

	domains := parsed.DNSNames
	if len(domains) == 0 && parsed.Subject.CommonName != "" {
		domains = []string{parsed.Subject.CommonName}
	}

	issuer := parsed.Issuer.CommonName
	if issuer == "" {
		issuer = parsed.Issuer.String()
	}

	return &Certificate{
		AllDomains:  domains,
		NotBefore:   parsed.NotBefore.Unix(),
		NotAfter:    parsed.NotAfter.Unix(),
		Fingerprint: hex.EncodeToString(sum[:]),
		Issuer:      issuer,
	}, nil
}
