package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/wikicontest/internal/model"
)

const (
	identifyTimeout   = 10 * time.Second
	identifyLeeway    = time.Minute
	maxIdentifyBody   = 64 * 1024
	outOfBandCallback = "oob"
)

// MediaWikiConfig はMediaWiki OAuthプロバイダーの設定。
type MediaWikiConfig struct {
	// IndexURL はウィキのindex.phpのURL（例: https://meta.wikimedia.org/w/index.php）。
	IndexURL       string
	ConsumerKey    string
	ConsumerSecret string
	// Now はJWT検証に使う時刻。nilの場合はtime.Now。
	Now func() time.Time
}

// MediaWikiProvider はMediaWikiのSpecial:OAuthを使ったIdentityProvider実装。
// 署名はOAuth 1.0a（HMAC-SHA1）、identifyの応答はコンシューマーシークレットで署名されたJWT。
type MediaWikiProvider struct {
	oauth       *oauth1.Config
	identifyURL string
	issuerHost  string
	consumerKey string
	secret      []byte
	now         func() time.Time
}

// NewMediaWikiProvider はMediaWikiProviderを生成する。
func NewMediaWikiProvider(cfg MediaWikiConfig) (*MediaWikiProvider, error) {
	base, err := url.Parse(cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MediaWiki index URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid MediaWiki index URL: %q", cfg.IndexURL)
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, errors.New("consumer key and secret are required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &MediaWikiProvider{
		oauth: &oauth1.Config{
			ConsumerKey:    cfg.ConsumerKey,
			ConsumerSecret: cfg.ConsumerSecret,
			CallbackURL:    outOfBandCallback,
			Endpoint: oauth1.Endpoint{
				RequestTokenURL: specialPageURL(base, "Special:OAuth/initiate"),
				AuthorizeURL:    specialPageURL(base, "Special:OAuth/authorize"),
				AccessTokenURL:  specialPageURL(base, "Special:OAuth/token"),
			},
		},
		identifyURL: specialPageURL(base, "Special:OAuth/identify"),
		issuerHost:  base.Host,
		consumerKey: cfg.ConsumerKey,
		secret:      []byte(cfg.ConsumerSecret),
		now:         now,
	}, nil
}

func specialPageURL(base *url.URL, title string) string {
	u := *base
	q := u.Query()
	q.Set("title", title)
	u.RawQuery = q.Encode()
	return u.String()
}

// Initiate はRequestTokenを取得し、認可画面のURLを返す。
func (p *MediaWikiProvider) Initiate(_ context.Context) (string, model.RequestToken, error) {
	key, secret, err := p.oauth.RequestToken()
	if err != nil {
		return "", model.RequestToken{}, fmt.Errorf("failed to get request token: %w", err)
	}

	authURL, err := p.oauth.AuthorizationURL(key)
	if err != nil {
		return "", model.RequestToken{}, fmt.Errorf("failed to build authorization URL: %w", err)
	}
	q := authURL.Query()
	q.Set("oauth_consumer_key", p.consumerKey)
	authURL.RawQuery = q.Encode()

	return authURL.String(), model.RequestToken{Key: key, Secret: secret}, nil
}

// Complete はコールバックのoauth_verifierを使ってAccessTokenを取得する。
func (p *MediaWikiProvider) Complete(_ context.Context, rt model.RequestToken, callbackQuery string) (model.AccessToken, error) {
	values, err := url.ParseQuery(callbackQuery)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("invalid callback query: %w", err)
	}
	if got := values.Get("oauth_token"); got != rt.Key {
		return model.AccessToken{}, fmt.Errorf("unexpected request token key %q", got)
	}
	verifier := values.Get("oauth_verifier")
	if verifier == "" {
		return model.AccessToken{}, errors.New("oauth_verifier is missing from callback")
	}

	key, secret, err := p.oauth.AccessToken(rt.Key, rt.Secret, verifier)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("failed to get access token: %w", err)
	}
	return model.AccessToken{Key: key, Secret: secret}, nil
}

type identifyClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Identify はSpecial:OAuth/identifyを呼び出し、署名済みJWTを検証してユーザー情報を返す。
func (p *MediaWikiProvider) Identify(ctx context.Context, at model.AccessToken) (*model.Identity, error) {
	client := p.oauth.Client(ctx, oauth1.NewToken(at.Key, at.Secret))
	client.Timeout = identifyTimeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.identifyURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create identify request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIdentifyBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read identify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identify returned status %d", resp.StatusCode)
	}

	return p.parseIdentity(strings.TrimSpace(string(body)))
}

func (p *MediaWikiProvider) parseIdentity(raw string) (*model.Identity, error) {
	claims := &identifyClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(p.consumerKey),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(identifyLeeway),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid identify token: %w", err)
	}

	// issは$wgCanonicalServerのため、スキームを除いたホストで比較する
	iss, err := url.Parse(claims.Issuer)
	if err != nil || iss.Host != p.issuerHost {
		return nil, fmt.Errorf("unexpected identify issuer %q", claims.Issuer)
	}
	if claims.Username == "" {
		return nil, errors.New("identify token has no username")
	}

	return &model.Identity{Username: claims.Username, Email: claims.Email}, nil
}

// compile-time interface check
var _ IdentityProvider = (*MediaWikiProvider)(nil)
