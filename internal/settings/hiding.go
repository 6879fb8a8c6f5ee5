package settings

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownFlag = errors.New("unknown hiding flag")

// HidingSettings holds the per-feature content filtering flags
type HidingSettings struct {
	HideFeed                bool `json:"hideFeed"`
	RedirectToSubscriptions bool `json:"redirectToSubscriptions"`
	HideSidebar             bool `json:"hideSidebar"`
	HideRecommended         bool `json:"hideRecommended"`
	HideChat                bool `json:"hideChat"`
	HidePlaylists           bool `json:"hidePlaylists"`
	HideFundraiser          bool `json:"hideFundraiser"`
	HideEndScreen           bool `json:"hideEndScreen"`
	HideEndCards            bool `json:"hideEndCards"`
	HideShorts              bool `json:"hideShorts"`
	HideComments            bool `json:"hideComments"`
	HideProfilePhotos       bool `json:"hideProfilePhotos"`
	HideMixes               bool `json:"hideMixes"`
	HideMerch               bool `json:"hideMerch"`
	HideVideoInfo           bool `json:"hideVideoInfo"`
	HideButtonsBar          bool `json:"hideButtonsBar"`
	HideChannel             bool `json:"hideChannel"`
	HideDescription         bool `json:"hideDescription"`
	HideHeader              bool `json:"hideHeader"`
	HideNotifications       bool `json:"hideNotifications"`
	HideInaptSearch         bool `json:"hideInaptSearch"`
	HideTrending            bool `json:"hideTrending"`
	HideMoreYouTube         bool `json:"hideMoreYouTube"`
	HideSubscriptions       bool `json:"hideSubscriptions"`
	DisableAutoplay         bool `json:"disableAutoplay"`
	DisableAnnotations      bool `json:"disableAnnotations"`
}

// flagNames lists the wire names in canonical order. It must stay in the
// same order as HidingSettings.fields.
var flagNames = []string{
	"hideFeed",
	"redirectToSubscriptions",
	"hideSidebar",
	"hideRecommended",
	"hideChat",
	"hidePlaylists",
	"hideFundraiser",
	"hideEndScreen",
	"hideEndCards",
	"hideShorts",
	"hideComments",
	"hideProfilePhotos",
	"hideMixes",
	"hideMerch",
	"hideVideoInfo",
	"hideButtonsBar",
	"hideChannel",
	"hideDescription",
	"hideHeader",
	"hideNotifications",
	"hideInaptSearch",
	"hideTrending",
	"hideMoreYouTube",
	"hideSubscriptions",
	"disableAutoplay",
	"disableAnnotations",
}

// DefaultHiding returns the restrictive defaults applied on first run and
// reinstated on revert or reset.
func DefaultHiding() HidingSettings {
	return HidingSettings{
		HideFeed:                true,
		RedirectToSubscriptions: true,
		HideSidebar:             true,
		HideRecommended:         true,
		HideChat:                true,
		HidePlaylists:           false,
		HideFundraiser:          true,
		HideEndScreen:           true,
		HideEndCards:            true,
		HideShorts:              true,
		HideComments:            false,
		HideProfilePhotos:       false,
		HideMixes:               true,
		HideMerch:               true,
		HideVideoInfo:           false,
		HideButtonsBar:          false,
		HideChannel:             false,
		HideDescription:         false,
		HideHeader:              false,
		HideNotifications:       true,
		HideInaptSearch:         true,
		HideTrending:            true,
		HideMoreYouTube:         true,
		HideSubscriptions:       false,
		DisableAutoplay:         true,
		DisableAnnotations:      true,
	}
}

// FlagNames returns all flag names in canonical order
func FlagNames() []string {
	return append([]string(nil), flagNames...)
}

// IsFlag reports whether name is a known hiding flag
func IsFlag(name string) bool {
	return flagIndex(name) >= 0
}

func flagIndex(name string) int {
	for i, n := range flagNames {
		if n == name {
			return i
		}
	}
	return -1
}

func (h *HidingSettings) fields() []*bool {
	return []*bool{
		&h.HideFeed,
		&h.RedirectToSubscriptions,
		&h.HideSidebar,
		&h.HideRecommended,
		&h.HideChat,
		&h.HidePlaylists,
		&h.HideFundraiser,
		&h.HideEndScreen,
		&h.HideEndCards,
		&h.HideShorts,
		&h.HideComments,
		&h.HideProfilePhotos,
		&h.HideMixes,
		&h.HideMerch,
		&h.HideVideoInfo,
		&h.HideButtonsBar,
		&h.HideChannel,
		&h.HideDescription,
		&h.HideHeader,
		&h.HideNotifications,
		&h.HideInaptSearch,
		&h.HideTrending,
		&h.HideMoreYouTube,
		&h.HideSubscriptions,
		&h.DisableAutoplay,
		&h.DisableAnnotations,
	}
}

// Get returns the value of the named flag
func (h *HidingSettings) Get(name string) (bool, error) {
	i := flagIndex(name)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}
	return *h.fields()[i], nil
}

// Set changes the value of the named flag
func (h *HidingSettings) Set(name string, value bool) error {
	i := flagIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}
	*h.fields()[i] = value
	return nil
}

// Map returns the flags keyed by wire name
func (h *HidingSettings) Map() map[string]bool {
	m := make(map[string]bool, len(flagNames))
	for i, field := range h.fields() {
		m[flagNames[i]] = *field
	}
	return m
}

// Render formats the flags one per line in canonical order
func (h *HidingSettings) Render() string {
	var b strings.Builder
	for i, field := range h.fields() {
		fmt.Fprintf(&b, "%s: %t\n", flagNames[i], *field)
	}
	return b.String()
}
