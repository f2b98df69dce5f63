package filestore

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/koustreak/s3gate/internal/errs"
)

// AddressingStyle controls where the bucket name is encoded in request URLs.
type AddressingStyle string

const (
	// AddressingPath puts the bucket in the URL path (http://host/bucket/key).
	// Required by most self-hosted S3-compatible servers.
	AddressingPath AddressingStyle = "path"

	// AddressingVirtualHosted puts the bucket in the host name (http://bucket.host/key).
	AddressingVirtualHosted AddressingStyle = "virtual"
)

// maskSuffix is appended to the visible prefix of a masked secret.
const maskSuffix = "****"

// Config holds all settings needed to connect to an S3-compatible backend.
// A Config is a value: the gateway replaces it wholesale, never field by field.
type Config struct {
	// Endpoint is the URL of the storage server.
	// Example: "http://localhost:9000" for local MinIO. A bare "host:port"
	// is accepted and treated as plain HTTP.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint" validate:"notblank"`

	// AccessKey is the access key ID.
	AccessKey string `json:"accessKey" yaml:"access_key" mapstructure:"access_key" validate:"notblank"`

	// SecretKey is the secret access key. Never serialized unmasked by the API.
	SecretKey string `json:"secretKey" yaml:"secret_key" mapstructure:"secret_key" validate:"notblank"`

	// Bucket is the bucket every gateway operation targets.
	Bucket string `json:"bucket" yaml:"bucket" mapstructure:"bucket" validate:"notblank"`

	// Region is the signing region (e.g. "us-east-1").
	Region string `json:"region" yaml:"region" mapstructure:"region" validate:"notblank"`

	// AddressingStyle selects path-style or virtual-hosted bucket addressing.
	AddressingStyle AddressingStyle `json:"addressingStyle" yaml:"addressing_style" mapstructure:"addressing_style" validate:"oneof=path virtual"`
}

// DefaultConfig returns a sensible local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey, bucket string) *Config {
	return &Config{
		Endpoint:        endpoint,
		AccessKey:       accessKey,
		SecretKey:       secretKey,
		Bucket:          bucket,
		Region:          "us-east-1",
		AddressingStyle: AddressingPath,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so errors match what API clients sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks that every required field is present and that Endpoint
// parses as a URL with a host. The first offending field is reported in the
// returned *errs.Error; the message lists all of them.
func (c *Config) Validate() error {
	if c == nil {
		return errs.Configuration("config", "configuration cannot be empty")
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return errs.Wrap(errs.ErrKindConfiguration, "invalid configuration", err)
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
		return errs.Configuration(verrs[0].Field(), strings.Join(problems, "; "))
	}

	if _, err := c.EndpointURL(); err != nil {
		return err
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fe.Field() + " cannot be empty"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// EndpointURL parses Endpoint. A value without a scheme is treated as
// "http://<value>". The URL must carry a host and no path.
func (c *Config) EndpointURL() (*url.URL, error) {
	raw := strings.TrimSpace(c.Endpoint)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		e := errs.Configuration("endpoint", "invalid endpoint URL format: "+c.Endpoint)
		e.Cause = err
		return nil, e
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errs.Configuration("endpoint", "endpoint scheme must be http or https")
	}
	if u.Host == "" {
		return nil, errs.Configuration("endpoint", "endpoint has no host: "+c.Endpoint)
	}
	if u.Path != "" && u.Path != "/" {
		return nil, errs.Configuration("endpoint", "endpoint cannot contain a path: "+c.Endpoint)
	}
	return u, nil
}

// Masked returns a copy of c whose SecretKey is replaced by MaskSecret.
func (c Config) Masked() Config {
	c.SecretKey = MaskSecret(c.SecretKey)
	return c
}

// MaskSecret keeps the first four characters of secret and replaces the rest
// with a fixed marker. Secrets of four characters or fewer are fully masked.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return maskSuffix
	}
	return secret[:4] + maskSuffix
}
