// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package common

import (
	"bytes"
	"crypto/tls"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SigningService is the SigV4 service name of managed search domains.
const SigningService = "es"

// AWSIdentity is the ambient identity the process runs under.
type AWSIdentity struct {
	Credentials *credentials.Credentials
	AccountID   string
}

// NewAWSIdentity resolves credentials through the default provider chain and
// asks STS which account they belong to.
func NewAWSIdentity(region string) (AWSIdentity, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(region)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return AWSIdentity{}, errors.Wrapf(err, "Failed to create aws session in region %s", region)
	}

	identity, err := sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	if err != nil {
		return AWSIdentity{}, errors.Wrap(err, "Failed to get caller identity from sts")
	}
	accountID := aws.StringValue(identity.Account)
	log.Debug("Running as ", aws.StringValue(identity.Arn), " in account ", accountID)

	return AWSIdentity{
		Credentials: sess.Config.Credentials,
		AccountID:   accountID,
	}, nil
}

// SigningTransport signs every request with SigV4 before handing it to Base.
type SigningTransport struct {
	Base    http.RoundTripper
	Signer  *v4.Signer
	Region  string
	Service string
}

// NewSigningTransport builds the transport used to talk to the cluster.
// insecureSkipVerify disables certificate checks for self-signed endpoints.
func NewSigningTransport(creds *credentials.Credentials, region string, insecureSkipVerify bool) *SigningTransport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecureSkipVerify}
	// The signed payload hash must match what goes over the wire.
	base.DisableCompression = true

	return &SigningTransport{
		Base:    base,
		Signer:  v4.NewSigner(creds),
		Region:  region,
		Service: SigningService,
	}
}

func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	signed := req.Clone(req.Context())

	body, err := consume(req.Body)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to consume request body before signing")
	}

	// Sign also repopulates the request body.
	if _, err := t.Signer.Sign(signed, body, t.Service, t.Region, time.Now()); err != nil {
		return nil, errors.Wrap(err, "Unable to sign request")
	}
	return t.Base.RoundTrip(signed)
}

// consume reads the body into a ReadSeeker, the signer needs to hash it.
// May return a nil io.ReadSeeker.
func consume(body io.ReadCloser) (io.ReadSeeker, error) {
	if body == nil || body == http.NoBody {
		return nil, nil
	}
	defer body.Close()

	buf, err := ioutil.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}
