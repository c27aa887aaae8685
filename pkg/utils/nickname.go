package utils

import (
	"fmt"
	"math/rand"
	"net/url"
)

var (
	adjectives = []string{
		"Curious", "Cosmic", "Brave", "Calm", "Clever", "Dreamy", "Eager", "Gentle",
		"Happy", "Jolly", "Lucky", "Mellow", "Nimble", "Quiet", "Sunny", "Witty",
		"Wise", "Zen", "Bold", "Swift", "Nocturnal", "Early", "Artsy", "Geeky",
	}
	animals = []string{
		"Wolf", "Fox", "Falcon", "Panther", "Panda", "Tiger", "Lion", "Raven", "Otter",
		"Dolphin", "Phoenix", "Coyote", "Eagle", "Bear", "Cheetah", "Badger", "Kangaroo", "Turtle",
	}
)

// RandomNickname returns <Adjective><Animal><10..99>.
func RandomNickname(r *rand.Rand) string {
	a := adjectives[r.Intn(len(adjectives))]
	b := animals[r.Intn(len(animals))]
	return fmt.Sprintf("%s%s%d", a, b, 10+r.Intn(90))
}

// AvatarURL is the generated avatar shown until the user uploads a photo.
func AvatarURL(nickname string) string {
	return "https://api.dicebear.com/7.x/bottts/svg?seed=" + url.QueryEscape(nickname)
}
