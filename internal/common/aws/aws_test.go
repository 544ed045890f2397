package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awssdk.String("m-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-42")}, nil
}

func TestSESClient_SendHTML(t *testing.T) {
	api := &fakeSES{}
	client := newSESClientWithAPI(api, "noreply@example.org")

	err := client.SendHTML(context.Background(), "parent@example.org", "Assunto", "<p>ok</p>")
	require.NoError(t, err)

	assert.Equal(t, "noreply@example.org", awssdk.ToString(api.input.Source))
	assert.Equal(t, []string{"parent@example.org"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Assunto", awssdk.ToString(api.input.Message.Subject.Data))
	assert.Equal(t, "<p>ok</p>", awssdk.ToString(api.input.Message.Body.Html.Data))
}

func TestSESClient_SendHTML_Error(t *testing.T) {
	client := newSESClientWithAPI(&fakeSES{err: errors.New("throttled")}, "noreply@example.org")

	err := client.SendHTML(context.Background(), "parent@example.org", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent@example.org")
}

func TestSNSClient_Publish(t *testing.T) {
	api := &fakeSNS{}
	client := newSNSClientWithAPI(api, "arn:aws:sns:sa-east-1:123:digest")

	id, err := client.Publish(context.Background(), "Pendências", "body")
	require.NoError(t, err)
	assert.Equal(t, "msg-42", id)
	assert.Equal(t, "arn:aws:sns:sa-east-1:123:digest", awssdk.ToString(api.input.TopicArn))
	assert.Equal(t, "Pendências", awssdk.ToString(api.input.Subject))
}
