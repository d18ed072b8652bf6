package router_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/domain/repository"
	healthctrl "github.com/dropDatabas3/janus/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/janus/internal/http/controllers/oauth"
	oidcctrl "github.com/dropDatabas3/janus/internal/http/controllers/oidc"
	sessionctrl "github.com/dropDatabas3/janus/internal/http/controllers/session"
	"github.com/dropDatabas3/janus/internal/http/router"
	oauthsvc "github.com/dropDatabas3/janus/internal/http/services/oauth"
	oidcsvc "github.com/dropDatabas3/janus/internal/http/services/oidc"
	"github.com/dropDatabas3/janus/internal/http/services/session"
	"github.com/dropDatabas3/janus/internal/jwt"
	"github.com/dropDatabas3/janus/internal/ledger"
	"github.com/dropDatabas3/janus/internal/oauth"
	"github.com/dropDatabas3/janus/internal/store/memory"
)

const (
	testIssuerURL   = "https://auth.example"
	testRedirectURI = "https://rp.example/callback"
)

type harness struct {
	server *httptest.Server
	store  *memory.Store
	alice  *repository.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	issuer, err := jwt.NewIssuer(testIssuerURL, []byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	tokenIssuer := oauth.NewTokenIssuer(issuer)
	codec := oauth.NewContinuationCodec(issuer)

	cacheClient := cache.NewMemory("test")
	st := memory.NewStore()
	require.NoError(t, st.Seed(context.Background(),
		[]repository.ClientInput{
			{ClientID: "demo-web", Name: "Demo Web", Secret: "demo-secret", RedirectURIs: []string{testRedirectURI}},
			{ClientID: "spa", Name: "SPA", RedirectURIs: []string{testRedirectURI}},
		},
		[]repository.User{
			{Username: "alice", Email: "alice@example.com", EmailVerified: true, Name: "Alice Example"},
		},
	))
	alice, err := st.Users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	codeLedger := ledger.NewMemoryLedger(tokenIssuer)
	sessions := session.New(cacheClient, "sid", time.Hour)
	accessTokens := oauthsvc.NewAccessTokenStore(cacheClient, time.Hour)
	siteOpts := oauth.SiteOptions{RequireOpenIDScope: true}

	authorizeSvc := oauthsvc.NewAuthorizeService(oauthsvc.AuthorizeDeps{
		Clients:      st.Clients,
		Grants:       st.Grants,
		Codec:        codec,
		Ledger:       codeLedger,
		Sessions:     sessions,
		AccessTokens: accessTokens,
		SiteOpts:     siteOpts,
		LoginURL:     "/login",
	})
	consentSvc := oauthsvc.NewConsentService(oauthsvc.ConsentDeps{
		Clients:  st.Clients,
		Grants:   st.Grants,
		Codec:    codec,
		Sessions: sessions,
	})
	tokenSvc := oauthsvc.NewTokenService(oauthsvc.TokenDeps{
		Clients:      st.Clients,
		Ledger:       codeLedger,
		AccessTokens: accessTokens,
	})

	handler := router.New(router.Deps{
		Authorize: oauthctrl.NewAuthorizeController(authorizeSvc),
		Consent:   oauthctrl.NewConsentController(consentSvc),
		Token:     oauthctrl.NewTokenController(tokenSvc),
		Discovery: oidcctrl.NewDiscoveryController(oidcsvc.NewDiscoveryService(testIssuerURL)),
		Userinfo:  oidcctrl.NewUserinfoController(oidcsvc.NewUserinfoService(st.Users, accessTokens)),
		Login:     sessionctrl.NewLoginController(st.Users, sessions),
		Health:    healthctrl.NewController(cacheClient, nil),
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &harness{server: server, store: st, alice: alice}
}

// client returns an HTTP client with a cookie jar that never follows
// redirects, so each hop of the flow can be asserted.
func (h *harness) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (h *harness) login(t *testing.T, c *http.Client, returnToken string) *http.Response {
	t.Helper()
	form := url.Values{"username": {"alice"}}
	if returnToken != "" {
		form.Set("return", returnToken)
	}
	resp, err := c.PostForm(h.server.URL+"/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return resp
}

func (h *harness) grantAll(t *testing.T, clientID string, scopes []string) {
	t.Helper()
	_, err := h.store.Grants.CreateOrUpdate(context.Background(), repository.GrantUpdate{
		UserID:           h.alice.ID,
		ClientID:         clientID,
		PermissionsAdded: scopes,
	})
	require.NoError(t, err)
}

func authorizeURL(base string, params url.Values) string {
	return base + "/connect/authorize?" + params.Encode()
}

func codeFlowParams() url.Values {
	return url.Values{
		"response_type": {"code"},
		"client_id":     {"demo-web"},
		"redirect_uri":  {testRedirectURI},
		"scope":         {"openid profile"},
		"state":         {"st-123"},
	}
}

func TestCodeFlow_WithExistingGrant(t *testing.T) {
	h := newHarness(t)
	c := h.client(t)

	h.login(t, c, "")
	h.grantAll(t, "demo-web", []string{"openid", "profile"})

	resp, err := c.Get(authorizeURL(h.server.URL, codeFlowParams()))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "rp.example", loc.Host)
	require.Empty(t, loc.Fragment, "code flow delivers via query")

	q := loc.Query()
	code := q.Get("code")
	require.NotEmpty(t, code)
	require.Equal(t, "st-123", q.Get("state"))
	require.Empty(t, q.Get("access_token"), "no access token on the front channel in code flow")

	// Redeem at the token endpoint with client credentials.
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {"demo-web"},
		"client_secret": {"demo-secret"},
	}
	resp, err = http.PostForm(h.server.URL+"/connect/token", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var tok struct {
		Code         string `json:"code"`
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	require.Empty(t, tok.Code, "redeemed code must not echo back")
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.NotEmpty(t, tok.RefreshToken)
	require.NotEmpty(t, tok.IDToken, "openid scope must yield an id_token")
	require.Greater(t, tok.ExpiresIn, int64(0))

	// Replaying the code must fail as invalid_grant.
	resp, err = http.PostForm(h.server.URL+"/connect/token", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var oauthErr struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&oauthErr))
	require.Equal(t, "invalid_grant", oauthErr.Error)
}

func TestImplicitFlow_FragmentDelivery(t *testing.T) {
	h := newHarness(t)
	c := h.client(t)

	h.login(t, c, "")
	h.grantAll(t, "spa", []string{"openid"})

	params := url.Values{
		"response_type": {"id_token token"},
		"client_id":     {"spa"},
		"redirect_uri":  {testRedirectURI},
		"scope":         {"openid"},
		"state":         {"st-456"},
		"nonce":         {"n-789"},
	}
	resp, err := c.Get(authorizeURL(h.server.URL, params))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.NotEmpty(t, loc.Fragment, "implicit flow must deliver via fragment")
	require.Empty(t, loc.RawQuery, "nothing may leak into the query string")

	frag, err := url.ParseQuery(loc.Fragment)
	require.NoError(t, err)
	require.NotEmpty(t, frag.Get("access_token"))
	require.NotEmpty(t, frag.Get("id_token"))
	require.Empty(t, frag.Get("code"))
	require.Empty(t, frag.Get("refresh_token"), "no refresh token outside code flows")
	require.Equal(t, "st-456", frag.Get("state"))

	// The fragment access token works against userinfo.
	req, _ := http.NewRequest("GET", h.server.URL+"/connect/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+frag.Get("access_token"))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claims map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&claims))
	require.Equal(t, h.alice.ID, claims["sub"])
}

func TestFullJourney_LoginAndConsent(t *testing.T) {
	h := newHarness(t)
	c := h.client(t)

	// 1) Unauthenticated authorize parks the request behind the login URL.
	resp, err := c.Get(authorizeURL(h.server.URL, codeFlowParams()))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/login?return="), "got %q", loc)

	loginURL, err := url.Parse(loc)
	require.NoError(t, err)
	returnToken := loginURL.Query().Get("return")
	require.NotEmpty(t, returnToken)

	// 2) Login resumes the flow through /connect/authorize?return=.
	resp = h.login(t, c, returnToken)
	loc = resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/connect/authorize?return="), "got %q", loc)

	// 3) Without a grant the flow detours through consent.
	resp, err = c.Get(h.server.URL + loc)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc = resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/connect/consent?return="), "got %q", loc)

	// 4) The consent page renders the requested scopes.
	resp, err = c.Get(h.server.URL + loc)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	require.Contains(t, string(body), "Demo Web")
	require.Contains(t, string(body), "openid")

	consentURL, err := url.Parse(loc)
	require.NoError(t, err)
	consentToken := consentURL.Query().Get("return")

	// 5) Submitting consent re-parks the request for /connect/complete.
	form := url.Values{
		"return":        {consentToken},
		"permissions[]": {"openid", "profile"},
	}
	resp, err = c.PostForm(h.server.URL+"/connect/consent", form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc = resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/connect/complete?return="), "got %q", loc)

	// 6) Complete issues the code and lands on the client.
	resp, err = c.Get(h.server.URL + loc)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	final, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "rp.example", final.Host)
	require.NotEmpty(t, final.Query().Get("code"))
	require.Equal(t, "st-123", final.Query().Get("state"))

	// The decision persisted: next authorize skips consent.
	resp, err = c.Get(authorizeURL(h.server.URL, codeFlowParams()))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	direct, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "rp.example", direct.Host)
	require.NotEmpty(t, direct.Query().Get("code"))
}

func TestAuthorize_UnregisteredRedirectURI(t *testing.T) {
	h := newHarness(t)
	c := h.client(t)
	h.login(t, c, "")

	params := codeFlowParams()
	params.Set("redirect_uri", "https://evil.example/steal")
	resp, err := c.Get(authorizeURL(h.server.URL, params))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Never a redirect: the error stays with the user agent.
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, resp.Header.Get("Location"))
}

func TestAuthorize_PromptNoneWithoutSession(t *testing.T) {
	h := newHarness(t)
	c := h.client(t)

	params := codeFlowParams()
	params.Set("prompt", "none")
	resp, err := c.Get(authorizeURL(h.server.URL, params))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "rp.example", loc.Host)
	require.Equal(t, "login_required", loc.Query().Get("error"))
	require.Equal(t, "st-123", loc.Query().Get("state"))
}

func TestToken_BadClientSecret(t *testing.T) {
	h := newHarness(t)
	c := h.client(t)
	h.login(t, c, "")
	h.grantAll(t, "demo-web", []string{"openid", "profile"})

	resp, err := c.Get(authorizeURL(h.server.URL, codeFlowParams()))
	require.NoError(t, err)
	resp.Body.Close()
	loc, _ := url.Parse(resp.Header.Get("Location"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {"demo-web"},
		"client_secret": {"wrong"},
	}
	resp, err = http.PostForm(h.server.URL+"/connect/token", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")
}

func TestDiscovery(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.server.URL + "/.well-known/openid-configuration")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	require.Equal(t, testIssuerURL, doc["issuer"])
	require.Equal(t, testIssuerURL+"/connect/authorize", doc["authorization_endpoint"])
	require.Equal(t, testIssuerURL+"/connect/token", doc["token_endpoint"])
	require.Equal(t, testIssuerURL+"/connect/userinfo", doc["userinfo_endpoint"])
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
