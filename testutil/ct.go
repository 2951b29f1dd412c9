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

package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/binary"
	"math/big"
	"testing"
	"time"
)

// SelfSignedDER generates a throwaway self-signed certificate for CT
// entry fixtures.
func SelfSignedDER(t *testing.T, cn string, sans []string, notBefore, notAfter time.Time) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		DNSNames:     sans,
		NotBefore:    notBefore,
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	return der
}

// X509LeafInput encodes a MerkleTreeLeaf carrying der as an x509_entry,
// base64 as it appears on the wire.
func X509LeafInput(der []byte) string {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint16(buf[10:12], 0)
	buf = append(buf, lengthPrefix24(der)...)
	return base64.StdEncoding.EncodeToString(buf)
}

// PrecertLeafInput encodes a MerkleTreeLeaf header for a precert_entry;
// the DER travels in extra_data, see PrecertExtraData.
func PrecertLeafInput() string {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint16(buf[10:12], 1)
	return base64.StdEncoding.EncodeToString(buf)
}

// PrecertExtraData encodes the extra_data blob for a precert entry: a
// 24-bit big-endian length followed by the DER.
func PrecertExtraData(der []byte) string {
	return base64.StdEncoding.EncodeToString(lengthPrefix24(der))
}

func lengthPrefix24(der []byte) []byte {
	out := []byte{byte(len(der) >> 16), byte(len(der) >> 8), byte(len(der))}
	return append(out, der...)
}
