package services

import (
	"strings"

	domain "github.com/brightcart/api/internal/domain"
)

// ImageURLNormalizer rewrites stored image references into absolute URLs.
type ImageURLNormalizer struct {
	baseOrigin string
	cdnHosts   []string
}

// NewImageURLNormalizer builds a normalizer. baseOrigin prefixes relative paths and
// cdnHosts lists host fragments that identify scheme-less CDN references.
func NewImageURLNormalizer(baseOrigin string, cdnHosts []string) *ImageURLNormalizer {
	hosts := make([]string, 0, len(cdnHosts))
	for _, host := range cdnHosts {
		if h := strings.ToLower(strings.TrimSpace(host)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return &ImageURLNormalizer{
		baseOrigin: strings.TrimRight(strings.TrimSpace(baseOrigin), "/"),
		cdnHosts:   hosts,
	}
}

// Normalize folds a legacy gallery into the empty numbered slots and rewrites every slot.
func (n *ImageURLNormalizer) Normalize(images domain.ProductImages) domain.ProductImages {
	slots := images.Slots()
	gallery := images.Gallery
	for i := range slots {
		if strings.TrimSpace(slots[i]) != "" {
			continue
		}
		for len(gallery) > 0 {
			next := gallery[0]
			gallery = gallery[1:]
			if strings.TrimSpace(next) != "" {
				slots[i] = next
				break
			}
		}
	}
	return domain.ProductImages{
		Image1: n.NormalizeURL(slots[0]),
		Image2: n.NormalizeURL(slots[1]),
		Image3: n.NormalizeURL(slots[2]),
	}
}

// NormalizeURL returns raw unchanged when it is blank or already absolute.
func (n *ImageURLNormalizer) NormalizeURL(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return raw
	}
	if isAbsoluteURL(value) {
		return raw
	}
	if n == nil {
		return value
	}

	lower := strings.ToLower(value)
	for _, host := range n.cdnHosts {
		if strings.Contains(lower, host) {
			return "https://" + strings.TrimLeft(value, "/")
		}
	}
	if n.baseOrigin == "" {
		return value
	}
	return n.baseOrigin + "/" + strings.TrimLeft(value, "/")
}

func isAbsoluteURL(value string) bool {
	if strings.HasPrefix(value, "//") {
		return true
	}
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:") {
		return true
	}
	idx := strings.Index(value, "://")
	if idx <= 0 {
		return false
	}
	for i, r := range value[:idx] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
