// backend : 시뮬레이터 백엔드 REST 클라이언트.
// 주문 매칭/포지션 계산/영속화는 전부 백엔드 일이고, 여기서는
// 봉 조회 2종(before/partial), 이벤트 조회, 시각 통지만 한다
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"otter/interfaces"
	"otter/model"
	"otter/utils/auth"
	"otter/utils/collection"
	"otter/utils/log"
	"otter/utils/resty"
)

const (
	pathCandlesBefore  = "/api/market-data/candles/before"
	pathCandlesPartial = "/api/market-data/candles/partial"
	pathDateRange      = "/api/market-data/date-range"
	pathOrders         = "/api/orders"
	pathTrades         = "/api/trades"
	pathAdvanceTime    = "/api/simulation/advance-time"
)

var (
	ErrFetchFailed = fmt.Errorf("backend fetch failed")

	// 세션이 종료 판단에 쓰는 센티널 재노출
	ErrEndOfData = interfaces.ErrEndOfData
)

type Client struct {
	baseURL   string
	accessKey string
	secretKey string
	resty     resty.RestyClient
}

type Option func(*Client)

// WithCredentials : 백엔드가 인증을 요구할 때만 설정. 비어 있으면 토큰 생략
func WithCredentials(accessKey, secretKey string) Option {
	return func(c *Client) {
		c.accessKey = accessKey
		c.secretKey = secretKey
	}
}

// WithRestyClient : 테스트에서 mock resty 주입용
func WithRestyClient(rc resty.RestyClient) Option {
	return func(c *Client) { c.resty = rc }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		resty:   resty.NewDefaultRestyClientWithRetryCount(false, 2, 10*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CandlesBefore(ctx context.Context, timeframe model.Timeframe, asOf time.Time, limit int) (model.CandleBatch, error) {
	return c.fetchCandles(ctx, pathCandlesBefore, timeframe, asOf, limit)
}

func (c *Client) CandlesPartial(ctx context.Context, timeframe model.Timeframe, asOf time.Time, limit int) (model.CandleBatch, error) {
	return c.fetchCandles(ctx, pathCandlesPartial, timeframe, asOf, limit)
}

func (c *Client) fetchCandles(ctx context.Context, path string, timeframe model.Timeframe, asOf time.Time, limit int) (model.CandleBatch, error) {
	params := map[string]interface{}{
		"timeframe":   string(timeframe),
		"before_time": asOf.Format(timeLayout),
		"limit":       limit,
	}

	body, err := c.get(ctx, path, params,
		resty.QueryParam{Key: "timeframe", Value: string(timeframe)},
		resty.QueryParam{Key: "before_time", Value: asOf.Format(timeLayout)},
		resty.QueryParam{Key: "limit", Value: limit},
	)
	if err != nil {
		return model.CandleBatch{}, err
	}

	var env candlesEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.CandleBatch{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if !env.Success {
		return model.CandleBatch{}, fmt.Errorf("%w: %s", ErrFetchFailed, env.Error)
	}

	candles := collection.MapNotNil(env.Data.Candles, candlePayload.toCandle)
	return model.CandleBatch{
		Candles:     candles,
		DataMissing: env.Data.DataMissing || len(candles) == 0,
	}, nil
}

// Events : 주문(entry) + 청산된 트레이드(exit)를 한 목록으로 합쳐 시간순 반환.
// 두 피드 모두 limit/offset 페이징으로 짧은 페이지가 나올 때까지 전부 읽는다
func (c *Client) Events(ctx context.Context, limit int) ([]model.BusinessEvent, error) {
	var events []model.BusinessEvent

	err := c.eachPage(ctx, pathOrders, limit, func(body []byte) (int, error) {
		var env ordersEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		events = append(events, collection.MapNotNil(env.Data.Orders, orderPayload.toEvent)...)
		return len(env.Data.Orders), nil
	})
	if err != nil {
		return nil, err
	}

	err = c.eachPage(ctx, pathTrades, limit, func(body []byte) (int, error) {
		var env tradesEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		events = append(events, collection.MapNotNil(env.Data.Trades, tradePayload.toEvent)...)
		return len(env.Data.Trades), nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
	return events, nil
}

// eachPage : 피드 하나를 offset을 올려가며 끝까지 읽음. parse는 페이지의
// 원소 수를 돌려주고, limit보다 짧으면 마지막 페이지로 본다
func (c *Client) eachPage(ctx context.Context, path string, limit int, parse func([]byte) (int, error)) error {
	for offset := 0; ; offset += limit {
		params := map[string]interface{}{"limit": limit, "offset": offset}
		body, err := c.get(ctx, path, params,
			resty.QueryParam{Key: "limit", Value: limit},
			resty.QueryParam{Key: "offset", Value: offset},
		)
		if err != nil {
			return err
		}

		count, err := parse(body)
		if err != nil {
			return err
		}
		if count < limit {
			return nil
		}
	}
}

// AdvanceTime : 새 시뮬레이션 시각 통지. 주말 등으로 백엔드가 시각을
// 건너뛰면 Skipped=true와 건너뛴 시각이 돌아옴. 데이터 끝이면 ErrEndOfData
func (c *Client) AdvanceTime(ctx context.Context, newTime time.Time) (model.AdvanceResult, error) {
	reqBody := map[string]string{"new_time": newTime.Format(timeLayout)}

	resp, err := c.resty.MakeRequest(ctx, reqBody, c.authHeader(nil)).Post(c.baseURL + pathAdvanceTime)
	if err != nil {
		return model.AdvanceResult{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	var env advanceEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return model.AdvanceResult{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if !env.Success {
		if strings.Contains(env.Error, "No more data") {
			return model.AdvanceResult{}, ErrEndOfData
		}
		return model.AdvanceResult{}, fmt.Errorf("%w: %s", ErrFetchFailed, env.Error)
	}

	current, err := time.Parse(timeLayout, env.Data.CurrentTime)
	if err != nil {
		return model.AdvanceResult{}, fmt.Errorf("%w: bad current_time %q", ErrFetchFailed, env.Data.CurrentTime)
	}
	return model.AdvanceResult{CurrentTime: current, Skipped: env.Data.Skipped}, nil
}

func (c *Client) DateRange(ctx context.Context) (model.DateRange, error) {
	body, err := c.get(ctx, pathDateRange, nil)
	if err != nil {
		return model.DateRange{}, err
	}

	var env dateRangeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.DateRange{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	out := model.DateRange{Timeframes: make(map[model.Timeframe]model.DataRange)}
	out.Start, _ = time.Parse(timeLayout, env.Data.StartDate)
	out.End, _ = time.Parse(timeLayout, env.Data.EndDate)
	for name, r := range env.Data.Timeframes {
		tf, err := model.ParseTimeframe(name)
		if err != nil {
			log.Warnf("[Backend] unknown timeframe in date-range: %s", name)
			continue
		}
		start, _ := time.Parse(timeLayout, r.Start)
		end, _ := time.Parse(timeLayout, r.End)
		out.Timeframes[tf] = model.DataRange{Start: start, End: end, Count: r.Count}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]interface{}, qp ...resty.QueryParam) ([]byte, error) {
	resp, err := c.resty.MakeRequest(ctx, nil, c.authHeader(params)).Get(c.baseURL+path, qp...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode())
	}
	return resp.Body(), nil
}

// authHeader : 키가 설정된 경우에만 Bearer 토큰을 붙임
func (c *Client) authHeader(params map[string]interface{}) any {
	if c.accessKey == "" {
		return nil
	}
	token, err := auth.GenerateToken(c.accessKey, c.secretKey, params)
	if err != nil {
		log.Warnf("[Backend] failed to sign request token: %v", err)
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
