package extract

import (
	"fmt"

	"github.com/realcrm/lead-harvester/internal/hash/md5"
)

// FallbackID derives a stable identity for listings whose payload carries
// no id or token. Phone, address, and publish date together identify one
// ad well enough for the dedup key to hold across re-scrapes.
func FallbackID(phone, address, date string) string {
	hasher := md5.New()
	digest, err := hasher.Hash([]byte(fmt.Sprintf("%s|%s|%s", phone, address, date)))
	if err != nil {
		return ""
	}
	return digest
}
