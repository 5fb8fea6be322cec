package catalog

import "regexp"

// regexpCompileDotStar compiles pattern prefixed with ".*" and anchored at
// both ends, so the whole file path has to match `.*<pattern>`: the
// pattern has to match a suffix of the path.
func regexpCompileDotStar(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^.*(?:" + pattern + ")$")
}
