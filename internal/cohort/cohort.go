// Package cohort maps an email address to the feed group its owner belongs to.
package cohort

import (
	"regexp"
	"strings"
)

// Default is the catch-all group for addresses no rule recognises.
const Default = "general"

// allowList pins individual addresses that the domain rules would misfile:
// staff, moderators and demo accounts.
var allowList = map[string]string{
	"admin@campusmatch.app":     "staff",
	"moderator@campusmatch.app": "staff",
	"demo@campusmatch.app":      Default,
}

// institutions maps a registrable domain to its institution bucket. A domain
// also matches its subdomains (students.iiitd.ac.in -> iiitd).
var institutions = map[string]string{
	"iiitd.ac.in":       "iiitd",
	"iitd.ac.in":        "iitd",
	"du.ac.in":          "du",
	"dtu.ac.in":         "dtu",
	"nsut.ac.in":        "nsut",
	"bits-pilani.ac.in": "bits",
	"ashoka.edu.in":     "ashoka",
	"stanford.edu":      "stanford",
	"berkeley.edu":      "berkeley",
	"mit.edu":           "mit",
	"ox.ac.uk":          "oxford",
	"cam.ac.uk":         "cambridge",
	"campusmatch.app":   "staff",
	"students.uni.test": "unitest",
}

var (
	yearPrefix = regexp.MustCompile(`^20(\d{2})`)
	yearSuffix = regexp.MustCompile(`[a-z](\d{2})$`)
)

// GroupFor returns the group for email. It is total (every input maps to a
// group, Default included) and deterministic.
//
// Rules, first match wins:
//  1. allow-listed address
//  2. known institution domain, with a cohort year taken from the local part
//     when it starts with 20YY or ends in letters followed by YY
//  3. Default
func GroupFor(email string) string {
	e := strings.ToLower(strings.TrimSpace(email))
	if g, ok := allowList[e]; ok {
		return g
	}

	at := strings.LastIndex(e, "@")
	if at <= 0 || at == len(e)-1 {
		return Default
	}
	local, domain := e[:at], e[at+1:]

	inst, ok := institutionFor(domain)
	if !ok {
		return Default
	}
	if inst == "staff" {
		return inst
	}
	if yy := cohortYear(local); yy != "" {
		return inst + "-20" + yy
	}
	return inst
}

func institutionFor(domain string) (string, bool) {
	for d := domain; d != ""; {
		if inst, ok := institutions[d]; ok {
			return inst, true
		}
		dot := strings.IndexByte(d, '.')
		if dot < 0 {
			break
		}
		d = d[dot+1:]
	}
	return "", false
}

func cohortYear(local string) string {
	if m := yearPrefix.FindStringSubmatch(local); m != nil {
		return m[1]
	}
	if m := yearSuffix.FindStringSubmatch(local); m != nil {
		return m[1]
	}
	return ""
}
