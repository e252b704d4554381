package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"africoin/internal/ledger"
	"africoin/internal/logger"
	"africoin/internal/metrics"
)

const (
	queueKey  = "receipts"
	failedKey = "receipts:failed"

	maxTries = 3
)

// ReceiptJob is one transaction receipt awaiting webhook delivery.
type ReceiptJob struct {
	Hash      string    `json:"hash"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Amount    string    `json:"amount"`
	Type      string    `json:"type"`
	Tries     int       `json:"tries"`
	Created   time.Time `json:"created"`
}

// Service queues transaction receipts on redis and delivers them to a
// configured webhook from a background worker. Delivery is best-effort and
// never fails the operation that produced the transaction.
type Service struct {
	redis      *redis.Client
	webhookURL string
	secret     string
	httpClient *http.Client
}

func New(redisAddr, webhookURL, secret string) *Service {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: redisAddr}), webhookURL, secret)
}

func NewWithClient(client *redis.Client, webhookURL, secret string) *Service {
	return &Service{
		redis:      client,
		webhookURL: webhookURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *Service) TransactionCompleted(ctx context.Context, tx *ledger.Transaction) {
	if s.webhookURL == "" {
		return
	}

	job := ReceiptJob{
		Hash:      tx.Hash,
		Sender:    tx.SenderIDHash,
		Recipient: tx.RecipientIDHash,
		Amount:    tx.Amount,
		Type:      tx.Type,
		Created:   time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal receipt job: %v", err)
		return
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue receipt for %s: %v", tx.Hash, err)
		return
	}

	logger.Infof("Receipt queued: %s", tx.Hash)
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Receipt service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Receipt service stopped")
			return
		default:
			s.processNext(ctx)
			metrics.ReceiptQueueLength.Set(float64(s.QueueLength(ctx)))
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job ReceiptJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad receipt data: %v", err)
		return
	}

	job.Tries++
	if err := s.deliver(job); err != nil {
		logger.Errorf("Failed to deliver receipt %s: %v", job.Hash, err)

		if job.Tries < maxTries {
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			logger.Errorf("Receipt %s failed after %d attempts", job.Hash, maxTries)
			metrics.RecordReceipt("failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordReceipt("sent")
	logger.Infof("Receipt delivered: %s", job.Hash)
}

func (s *Service) deliver(job ReceiptJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "AfriCoin-Receipts/1.0")
	req.Header.Set("X-Signature", s.sign(payload))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook returned status %d", resp.StatusCode)
}

// sign lets the receiver verify the receipt came from us.
func (s *Service) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Service) saveFailed(job ReceiptJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
