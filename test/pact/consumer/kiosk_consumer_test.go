//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/foodcourt-server/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type vendorPayload struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	StallNo string `json:"stallNo"`
}

type receiptPayload struct {
	OrderID     int64  `json:"orderId"`
	Status      string `json:"status"`
	Subtotal    string `json:"subtotal"`
	Tax         string `json:"tax"`
	Payable     string `json:"payable"`
	PaymentRef  string `json:"paymentRef"`
	PaymentLink string `json:"paymentLink"`
	Vendors     int    `json:"vendors"`
}

type statusPayload struct {
	OrderID   int64  `json:"orderId"`
	Status    string `json:"status"`
	Payable   string `json:"payable"`
	Paid      bool   `json:"paid"`
	SubOrders []struct {
		VendorID int64  `json:"vendorId"`
		Status   string `json:"status"`
	} `json:"subOrders"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	code   string
	detail string
}

func (e apiError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.code, e.detail, e.status)
}

func TestKioskContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	money := func(example string) matchers.Matcher {
		return matchers.Regex(example, `^\d+\.\d{2}$`)
	}
	statuses := "created|preparing|ready|completed|cancelled|partially_cancelled"

	pact.AddInteraction().
		Given(pacttest.StateCatalogSeeded).
		UponReceiving("a request for the stalls").
		WithRequest("GET", "/v1/catalog/vendors").
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.EachLike(matchers.Map{
				"id":      matchers.Like(1),
				"name":    matchers.Like("Pizza Hub"),
				"stallNo": matchers.Like("A1"),
			}, 1))
		})

	pact.AddInteraction().
		Given(pacttest.StateCartFilled).
		UponReceiving("a checkout of a two-vendor cart").
		WithRequest("POST", "/v1/checkout", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Idempotency-Key", matchers.S("kiosk-attempt-1"))
			b.JSONBody(matchers.Map{
				"token":   matchers.S(pacttest.GuestToken),
				"tableNo": matchers.S(pacttest.TableNo),
			})
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"orderId":     matchers.Like(1),
				"status":      matchers.S("created"),
				"subtotal":    money("647.00"),
				"tax":         money("32.35"),
				"payable":     money("679.35"),
				"paymentRef":  matchers.Like("STUB-1"),
				"paymentLink": matchers.Like("https://example.com/pay/STUB-1"),
				"vendors":     matchers.Like(2),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a status poll for an existing order").
		WithRequest("GET", fmt.Sprintf("/v1/orders/%d", pacttest.ExistingOrderID)).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"orderId": matchers.Like(pacttest.ExistingOrderID),
				"status":  matchers.Term("created", statuses),
				"payable": money("679.35"),
				"paid":    matchers.Like(false),
				"subOrders": matchers.EachLike(matchers.Map{
					"vendorId": matchers.Like(1),
					"status":   matchers.Term("created", statuses),
				}, 1),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a status poll for a missing order").
		WithRequest("GET", fmt.Sprintf("/v1/orders/%d", pacttest.MissingOrderID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"status": matchers.Like(http.StatusNotFound),
				"code":   matchers.S("OrderNotFound"),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newKioskClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var vendors []vendorPayload
		if err := client.do(ctx, http.MethodGet, "/v1/catalog/vendors", nil, nil, &vendors); err != nil {
			return fmt.Errorf("list vendors: %w", err)
		}
		if len(vendors) == 0 {
			return fmt.Errorf("expected at least one stall")
		}

		var receipt receiptPayload
		body := map[string]string{"token": pacttest.GuestToken, "tableNo": pacttest.TableNo}
		headers := map[string]string{"Idempotency-Key": "kiosk-attempt-1"}
		if err := client.do(ctx, http.MethodPost, "/v1/checkout", body, headers, &receipt); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
		if receipt.OrderID == 0 || receipt.Vendors != 2 {
			return fmt.Errorf("unexpected receipt %+v", receipt)
		}

		var status statusPayload
		if err := client.do(ctx, http.MethodGet, fmt.Sprintf("/v1/orders/%d", pacttest.ExistingOrderID), nil, nil, &status); err != nil {
			return fmt.Errorf("poll status: %w", err)
		}
		if status.OrderID != pacttest.ExistingOrderID || len(status.SubOrders) == 0 {
			return fmt.Errorf("unexpected status %+v", status)
		}

		err := client.do(ctx, http.MethodGet, fmt.Sprintf("/v1/orders/%d", pacttest.MissingOrderID), nil, nil, &status)
		apiErr, ok := err.(apiError)
		if !ok || apiErr.status != http.StatusNotFound || apiErr.code != "OrderNotFound" {
			return fmt.Errorf("expected OrderNotFound, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}

type kioskClient struct {
	baseURL    string
	httpClient *http.Client
}

func newKioskClient(config pactconsumer.MockServerConfig) *kioskClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &kioskClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *kioskClient) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var problem problemDetail
		_ = json.NewDecoder(res.Body).Decode(&problem)
		status := problem.Status
		if status == 0 {
			status = res.StatusCode
		}
		return apiError{status: status, code: problem.Code, detail: problem.Detail}
	}
	return json.NewDecoder(res.Body).Decode(out)
}
