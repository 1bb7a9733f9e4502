package aggregator

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/cnosuke/mcp-upstream/catalog"
	"github.com/cnosuke/mcp-upstream/config"
	"github.com/cnosuke/mcp-upstream/fetcher"
	"github.com/cnosuke/mcp-upstream/runner"
	"github.com/cnosuke/mcp-upstream/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	DefaultSearchCount = 20
	MaxSearchCount     = 50
	DiagnoseKeyword    = "美食"
	diagnoseCount      = 5
)

var (
	ErrMissingKeyword    = errors.New("keyword is required")
	ErrMissingUniqueID   = errors.New("unique_id is required")
	ErrMissingCredential = errors.New("api key is required")
)

// Service runs the catalog operations against one upstream.
type Service struct {
	cfg      *config.Config
	runner   *runner.Runner
	trending catalog.Operation[types.TrendingEntry]
	search   catalog.Operation[types.VideoResult]
	userInfo catalog.Operation[types.Profile]
	diagnose catalog.Operation[types.VideoResult]
	// Hot-search candidates checked alongside diagnose
	diagnoseHot catalog.Operation[types.TrendingEntry]
}

// NewService wires a runner over f using the fetch policy from cfg.
func NewService(cfg *config.Config, f fetcher.Fetcher) *Service {
	r := runner.New(f, runner.Options{
		DefaultTimeout:    cfg.FetchTimeout(),
		AbortOnAuthReject: !cfg.Fetch.ContinueOnAuthReject,
		MaxAttempts:       cfg.Fetch.MaxAttempts,
		RetryBackoff:      cfg.RetryBackoff(),
	})
	s := &Service{
		cfg:      cfg,
		runner:   r,
		trending: catalog.Trending(cfg),
		search:   catalog.Search(cfg),
		userInfo: catalog.UserInfo(cfg),
		diagnose: catalog.Diagnose(cfg),

		diagnoseHot: catalog.DiagnoseTrending(cfg),
	}
	zap.S().Infow("aggregator service ready",
		"base_url", cfg.Upstream.BaseURL,
		"trending_candidates", len(s.trending.Candidates),
		"search_candidates", len(s.search.Candidates),
		"search_strategy", s.search.Strategy,
		"abort_on_auth_reject", !cfg.Fetch.ContinueOnAuthReject)
	return s
}

// NewHTTPService builds the HTTP fetcher from cfg and wraps it in a Service.
func NewHTTPService(cfg *config.Config) (*Service, error) {
	f, err := fetcher.NewHTTPFetcher(&fetcher.Config{
		Timeout:      cfg.FetchTimeout(),
		UserAgent:    cfg.Upstream.UserAgent,
		AuthHeader:   cfg.Upstream.AuthHeader,
		AuthScheme:   cfg.Upstream.AuthScheme,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP fetcher")
	}
	return NewService(cfg, f), nil
}

// Credential returns key, or the configured key when key is blank.
func (s *Service) Credential(key string) (string, error) {
	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "Bearer "))
	if key == "" {
		key = s.cfg.Upstream.APIKey
	}
	if key == "" {
		return "", ErrMissingCredential
	}
	return key, nil
}

// Trending fetches the hot-search list.
func (s *Service) Trending(ctx context.Context, credential string) (*types.Result[types.TrendingEntry], error) {
	return runner.Run(ctx, s.runner, s.trending.Request(credential, nil), s.trending.Extraction)
}

// Search fetches videos matching keyword. count is clamped to [1, MaxSearchCount].
func (s *Service) Search(ctx context.Context, credential, keyword string, count int) (*types.Result[types.VideoResult], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrMissingKeyword
	}
	return runner.Run(ctx, s.runner, s.search.Request(credential, searchParams(keyword, count)), s.search.Extraction)
}

// UserInfo fetches one creator profile. The result holds at most one record.
func (s *Service) UserInfo(ctx context.Context, credential, uniqueID string) (*types.Result[types.Profile], error) {
	uniqueID = strings.TrimSpace(uniqueID)
	if uniqueID == "" {
		return nil, ErrMissingUniqueID
	}
	res, err := runner.Run(ctx, s.runner, s.userInfo.Request(credential, map[string]string{"unique_id": uniqueID}), s.userInfo.Extraction)
	if err != nil {
		return nil, err
	}
	if len(res.Records) > 1 {
		res.Records = res.Records[:1]
	}
	for i := range res.Records {
		if res.Records[i].UniqueID == "" {
			res.Records[i].UniqueID = uniqueID
		}
	}
	return res, nil
}

// Diagnose races every search and hot-search candidate and reports each
// one's outcome and response shape. Records and winner come from search;
// hot-search diagnostics follow the search ones.
func (s *Service) Diagnose(ctx context.Context, credential, keyword string) (*types.Result[types.VideoResult], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		keyword = DiagnoseKeyword
	}

	var (
		wg     sync.WaitGroup
		hot    *types.Result[types.TrendingEntry]
		hotErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hot, hotErr = runner.Run(ctx, s.runner, s.diagnoseHot.Request(credential, nil), s.diagnoseHot.Extraction)
	}()
	res, err := runner.Run(ctx, s.runner, s.diagnose.Request(credential, searchParams(keyword, diagnoseCount)), s.diagnose.Extraction)
	wg.Wait()
	if err != nil {
		return nil, err
	}
	if hotErr != nil {
		return nil, errors.Wrap(hotErr, "hot search diagnose")
	}

	res.Diagnostics = append(res.Diagnostics, hot.Diagnostics...)
	if res.Winner == "" {
		res.Status = runner.Summarize(res.Diagnostics)
	}
	return res, nil
}

func searchParams(keyword string, count int) map[string]string {
	if count <= 0 {
		count = DefaultSearchCount
	}
	if count > MaxSearchCount {
		count = MaxSearchCount
	}
	return map[string]string{
		"keyword": keyword,
		"count":   strconv.Itoa(count),
	}
}
