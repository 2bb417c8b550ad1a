package routes

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const regexCacheSize = 1024

var regexCache *lru.Cache[string, *regexp.Regexp]

func init() {
	var err error
	if regexCache, err = lru.New[string, *regexp.Regexp](regexCacheSize); err != nil {
		panic(err)
	}
}

// CompileRegex compiles expr, returning a cached expression if it was compiled before
func CompileRegex(expr string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Get(expr); ok {
		return re, nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid regular expression %q", expr)
	}

	regexCache.Add(expr, re)
	return re, nil
}

