package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// S3Config descreve o bucket (S3 ou R2) onde ficam avatares e imagens de posts.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
	HTTPClient   *http.Client
}

func (c S3Config) validate() error {
	required := []struct{ value, name string }{
		{c.Endpoint, "endpoint"},
		{c.Region, "região"},
		{c.Bucket, "bucket"},
		{c.AccessKey, "access key"},
		{c.SecretKey, "secret key"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("storage: %s do S3 ausente", r.name)
		}
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("storage: endpoint deve ser URL http/https")
	}
	return nil
}

// S3Uploader grava objetos com PUT assinado.
type S3Uploader struct {
	base   string
	public string
	signer sigV4
	client *http.Client
}

// NewS3Uploader valida a configuração e cria o uploader.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &S3Uploader{
		base:   strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket,
		public: strings.TrimRight(strings.TrimSpace(cfg.PublicDomain), "/"),
		signer: sigV4{accessKey: cfg.AccessKey, secretKey: cfg.SecretKey, region: cfg.Region, service: "s3"},
		client: client,
	}, nil
}

// Upload envia o objeto e devolve a URL pública (domínio público quando configurado).
func (u *S3Uploader) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	key := strings.TrimLeft(strings.TrimSpace(in.Key), "/")
	if key == "" {
		return nil, errors.New("storage: chave do objeto obrigatória")
	}
	if len(in.Body) == 0 {
		return nil, errors.New("storage: corpo vazio")
	}

	escaped := (&url.URL{Path: key}).EscapedPath()
	target := u.base + "/" + escaped

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(in.Body))
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(len(in.Body))
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if in.CacheControl != "" {
		req.Header.Set("Cache-Control", in.CacheControl)
	}

	sum := sha256.Sum256(in.Body)
	u.signer.sign(req, hex.EncodeToString(sum[:]), time.Now())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("storage: upload falhou (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	publicURL := target
	if u.public != "" {
		publicURL = u.public + "/" + escaped
	}
	log.Debug().Str("key", key).Int("bytes", len(in.Body)).Msg("storage: objeto gravado")
	return &UploadResult{URL: publicURL, ETag: strings.Trim(resp.Header.Get("ETag"), `"`)}, nil
}
