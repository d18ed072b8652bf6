package oauth

import "fmt"

// ResponseMode selects the delivery channel for authorization results:
// query string or URI fragment.
type ResponseMode int

const (
	// ResponseModeQuery delivers results in the redirect URI query string.
	ResponseModeQuery ResponseMode = iota
	// ResponseModeFragment delivers results in the URI fragment.
	ResponseModeFragment
)

// ParseResponseMode parses an explicit response_mode value.
func ParseResponseMode(s string) (ResponseMode, error) {
	switch s {
	case "query":
		return ResponseModeQuery, nil
	case "fragment":
		return ResponseModeFragment, nil
	default:
		return 0, fmt.Errorf("unknown response_mode %q", s)
	}
}

func (rm ResponseMode) String() string {
	if rm == ResponseModeFragment {
		return "fragment"
	}
	return "query"
}

// DefaultResponseMode derives the default delivery channel for a response
// type. Whenever a token or id_token is issued the fragment is mandatory:
// tokens must never land in a referable query string.
//
//	code                   query
//	none                   query
//	token                  fragment
//	id_token               fragment
//	code token             fragment
//	code id_token          fragment
//	id_token token         fragment
//	code id_token token    fragment
func DefaultResponseMode(rt ResponseType) ResponseMode {
	if !rt.Token && !rt.IDToken {
		return ResponseModeQuery
	}
	return ResponseModeFragment
}

// ValidateResponseMode rejects query delivery for any response type that
// includes token or id_token, whether the mode was explicit or defaulted.
func ValidateResponseMode(rm ResponseMode, rt ResponseType) error {
	if rm == ResponseModeQuery && (rt.Token || rt.IDToken) {
		return fmt.Errorf("response_mode query unavailable for response_type %q", rt.String())
	}
	return nil
}
