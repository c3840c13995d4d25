package tor

import (
	"encoding/base32"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// OnionSuffix is the top-level label of Tor hidden services.
const OnionSuffix = ".onion"

const onionV3Version = 0x03

// Onion host validation errors.
var (
	// ErrInvalidOnionAddress is returned for a .onion host that is not a
	// well-formed v3 address.
	ErrInvalidOnionAddress = errors.New("invalid onion address")

	// ErrV2AddressDeprecated is returned for a 16-character v2 address.
	// The Tor network dropped v2 services in October 2021.
	ErrV2AddressDeprecated = errors.New("v2 onion addresses are deprecated and no longer reachable")
)

var (
	onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)
	onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)
)

var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether host is under the .onion top-level domain.
// Subdomains such as "www.<addr>.onion" count.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(host, ".")), OnionSuffix)
}

// CheckOnionHost validates the service address of an onion host name.
// Subdomain labels in front of the 56-character address are ignored.
func CheckOnionHost(host string) error {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if !strings.HasSuffix(host, OnionSuffix) {
		return ErrInvalidOnionAddress
	}

	labels := strings.Split(strings.TrimSuffix(host, OnionSuffix), ".")
	addr := labels[len(labels)-1] + OnionSuffix

	if IsValidV3Address(addr) {
		return nil
	}
	if onionV2Pattern.MatchString(addr) {
		return ErrV2AddressDeprecated
	}
	return ErrInvalidOnionAddress
}

// IsValidV3Address checks the format, version byte and checksum of a v3
// onion address such as "<56 base32 chars>.onion".
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != 35 {
		return false
	}

	// pubkey (32) | checksum (2) | version (1)
	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return false
	}
	want := v3Checksum(pubkey, version)
	return checksum[0] == want[0] && checksum[1] == want[1]
}

// v3Checksum is the first two bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func v3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)
	return sum[:2]
}
