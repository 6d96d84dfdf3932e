package route

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/crmarques/restresource/faults"
)

const forbiddenParamName = "hasOwnProperty"

var (
	nonWordPattern       = regexp.MustCompile(`\W`)
	digitsPattern        = regexp.MustCompile(`^\d+$`)
	trailingSlashPattern = regexp.MustCompile(`/+$`)
	extensionPattern     = regexp.MustCompile(`/\.(\w+)($|\?)`)
	escapedDotPattern    = regexp.MustCompile(`/\\\.`)
)

// Template is a compiled URL pattern with :name tokens.
type Template struct {
	raw    string
	tokens []string
}

// Expansion is the result of applying parameters to a template.
type Expansion struct {
	Path string
	// Query holds the parameters that did not match a URL token.
	Query map[string]any
}

func Compile(template string) (*Template, error) {
	tokens, err := discoverTokens(template)
	if err != nil {
		return nil, err
	}
	return &Template{raw: template, tokens: tokens}, nil
}

func MustCompile(template string) *Template {
	compiled, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return compiled
}

func (t *Template) String() string {
	if t == nil {
		return ""
	}
	return t.raw
}

// Tokens returns the parameter names found in the template, in discovery
// order.
func (t *Template) Tokens() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.tokens...)
}

// Expand substitutes params into the template. A non-empty actionURL replaces
// the compiled template for this expansion only.
func (t *Template) Expand(params map[string]any, actionURL string) (Expansion, error) {
	template := t.raw
	tokens := t.tokens
	if actionURL != "" {
		var err error
		template = actionURL
		tokens, err = discoverTokens(actionURL)
		if err != nil {
			return Expansion{}, err
		}
	}

	url := strings.ReplaceAll(template, `\:`, ":")
	isToken := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		isToken[token] = true

		value, ok := params[token]
		if ok && value != nil {
			url = substituteToken(url, token, EncodeSegment(value))
		} else {
			url = elideToken(url, token)
		}
	}

	url = trailingSlashPattern.ReplaceAllString(url, "")
	if url == "" {
		url = "/"
	}
	url = replaceFirst(extensionPattern, url, ".$1$2")
	url = replaceFirst(escapedDotPattern, url, "/.")

	var query map[string]any
	for key, value := range params {
		if isToken[key] || value == nil {
			continue
		}
		if query == nil {
			query = map[string]any{}
		}
		query[key] = value
	}

	return Expansion{Path: url, Query: query}, nil
}

// URL renders the path together with the encoded query string.
func (e Expansion) URL() string {
	query := BuildQuery(e.Query)
	if query == "" {
		return e.Path
	}
	separator := "?"
	if strings.Contains(e.Path, "?") {
		separator = "&"
	}
	return e.Path + separator + query
}

func discoverTokens(template string) ([]string, error) {
	seen := map[string]bool{}
	tokens := make([]string, 0)
	for _, candidate := range nonWordPattern.Split(template, -1) {
		if candidate == forbiddenParamName {
			return nil, faults.NewTypedError(
				faults.BadParamName,
				fmt.Sprintf("%s is not a valid parameter name", forbiddenParamName),
				nil,
			)
		}
		if candidate == "" || seen[candidate] || digitsPattern.MatchString(candidate) {
			continue
		}
		if !tokenPattern(candidate).MatchString(template) {
			continue
		}
		seen[candidate] = true
		tokens = append(tokens, candidate)
	}
	return tokens, nil
}

func tokenPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^\\]):` + regexp.QuoteMeta(name) + `(\W|$)`)
}

func substituteToken(url string, token string, encoded string) string {
	pattern := regexp.MustCompile(`:` + regexp.QuoteMeta(token) + `(\W|$)`)
	return pattern.ReplaceAllStringFunc(url, func(match string) string {
		return encoded + match[len(token)+1:]
	})
}

// elideToken removes an unmatched token; a separator before it goes too when
// the token is followed by another segment or ends the path.
func elideToken(url string, token string) string {
	pattern := regexp.MustCompile(`(/?):` + regexp.QuoteMeta(token) + `(\W|$)`)
	return pattern.ReplaceAllStringFunc(url, func(match string) string {
		groups := pattern.FindStringSubmatch(match)
		leadingSlash, tail := groups[1], groups[2]
		if strings.HasPrefix(tail, "/") {
			return tail
		}
		return leadingSlash + tail
	})
}

func replaceFirst(pattern *regexp.Regexp, value string, replacement string) string {
	location := pattern.FindStringSubmatchIndex(value)
	if location == nil {
		return value
	}
	expanded := pattern.ExpandString(nil, replacement, value, location)
	return value[:location[0]] + string(expanded) + value[location[1]:]
}
