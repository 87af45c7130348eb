package bugzilla

import "strings"

// ProductVersion is the Bugzilla product/version pair for an OS release.
type ProductVersion struct {
	Product string
	Version string
}

// Rule maps part of a release string onto a ProductVersion. Apply is only
// called when Match is true; it returns true to stop evaluating later rules.
type Rule struct {
	Name  string
	Match func(release string) bool
	Apply func(release string, pv *ProductVersion) (stop bool)
}

const rhelProduct = "Red Hat Enterprise Linux "

// DefaultRules resolve Fedora and Red Hat Enterprise Linux releases, most
// specific first.
var DefaultRules = []Rule{
	{
		Name:  "rawhide",
		Match: contains("Rawhide"),
		Apply: func(_ string, pv *ProductVersion) bool {
			pv.Product = "Fedora"
			pv.Version = "rawhide"
			return true
		},
	},
	{
		Name:  "fedora",
		Match: contains("Fedora"),
		Apply: func(_ string, pv *ProductVersion) bool {
			pv.Product = "Fedora"
			return false
		},
	},
	{
		Name: "rhel",
		Match: func(release string) bool {
			return !strings.Contains(release, "Fedora") && strings.Contains(release, "Red Hat Enterprise Linux")
		},
		Apply: func(_ string, pv *ProductVersion) bool {
			pv.Product = rhelProduct
			return false
		},
	},
	{
		Name:  "version",
		Match: contains("release"),
		Apply: func(release string, pv *ProductVersion) bool {
			pv.Version = releaseToken(release)
			// RHEL products carry the major version in the name.
			if pv.Product == rhelProduct {
				pv.Product += pv.Version
			}
			return true
		},
	},
}

func contains(substr string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, substr) }
}

// releaseToken returns the text between the first space after "release"
// and the next whitespace (or the end of the string).
func releaseToken(release string) string {
	_, rest, ok := strings.Cut(release, "release")
	if !ok {
		return ""
	}
	_, rest, ok = strings.Cut(rest, " ")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, " \t\n"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// ResolveProduct runs rules in order against release. A release matching no
// distribution leaves Product empty.
func ResolveProduct(release string, rules []Rule) ProductVersion {
	var pv ProductVersion
	for _, r := range rules {
		if !r.Match(release) {
			continue
		}
		if r.Apply(release, &pv) {
			break
		}
	}
	return pv
}
