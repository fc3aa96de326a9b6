package main

import (
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// clickTargeter posts a click for a random uid from uids on every hit.
func clickTargeter(base string, uids []string) vegeta.Targeter {
	base = strings.TrimRight(base, "/")
	return func(tgt *vegeta.Target) error {
		if tgt == nil {
			return vegeta.ErrNilTarget
		}
		if len(uids) == 0 {
			return vegeta.ErrNoTargets
		}
		*tgt = vegeta.Target{
			Method: http.MethodPost,
			URL:    base + "/api/click/" + url.PathEscape(uids[rand.Intn(len(uids))]),
		}
		return nil
	}
}
