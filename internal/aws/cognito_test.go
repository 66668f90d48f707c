package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

type mockCognitoClient struct {
	pools       []cognitotypes.UserPoolDescriptionType
	details     map[string]*cognitotypes.UserPoolType
	clients     map[string][]cognitotypes.UserPoolClientDescription
	err         error
	describeErr error
}

func (m *mockCognitoClient) ListUserPools(_ context.Context, _ *cognitoidentityprovider.ListUserPoolsInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUserPoolsOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &cognitoidentityprovider.ListUserPoolsOutput{UserPools: m.pools}, nil
}

func (m *mockCognitoClient) DescribeUserPool(_ context.Context, input *cognitoidentityprovider.DescribeUserPoolInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolOutput, error) {
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	return &cognitoidentityprovider.DescribeUserPoolOutput{UserPool: m.details[*input.UserPoolId]}, nil
}

func (m *mockCognitoClient) ListUserPoolClients(_ context.Context, input *cognitoidentityprovider.ListUserPoolClientsInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUserPoolClientsOutput, error) {
	return &cognitoidentityprovider.ListUserPoolClientsOutput{UserPoolClients: m.clients[*input.UserPoolId]}, nil
}

func testCognitoClient() *mockCognitoClient {
	return &mockCognitoClient{
		pools: []cognitotypes.UserPoolDescriptionType{
			{Id: awssdk.String("us-east-1_abc"), Name: awssdk.String("customers")},
		},
		details: map[string]*cognitotypes.UserPoolType{
			"us-east-1_abc": {
				EstimatedNumberOfUsers: 1200,
				MfaConfiguration:       cognitotypes.UserPoolMfaTypeOptional,
				UserPoolTags:           map[string]string{"Environment": "staging"},
			},
		},
		clients: map[string][]cognitotypes.UserPoolClientDescription{
			"us-east-1_abc": {
				{ClientId: awssdk.String("c1"), ClientName: awssdk.String("web")},
				{ClientId: awssdk.String("c2"), ClientName: awssdk.String("mobile")},
			},
		},
	}
}

func TestCognitoCollector_Records(t *testing.T) {
	coll, err := NewCognitoCollector(testCognitoClient(), "us-east-1").Collect(context.Background(), ScanConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := onlyResult(t, coll).Records[0]
	if r.Name != "customers" || r.Environment != "staging" {
		t.Fatalf("unexpected record %q/%q", r.Name, r.Environment)
	}
	if r.Attr("Estimated Users") != "1200" || r.Attr("MFA") != "OPTIONAL" {
		t.Fatalf("unexpected attrs %+v", r.Attrs)
	}
	if len(r.Children) != 2 || r.Children[0].Kind != inventory.KindAppClients || r.Children[1].Name != "mobile" {
		t.Fatalf("unexpected app clients %+v", r.Children)
	}
}

func TestCognitoCollector_DescribeFailureKeepsPool(t *testing.T) {
	mock := testCognitoClient()
	mock.describeErr = errors.New("throttled")
	coll, _ := NewCognitoCollector(mock, "us-east-1").Collect(context.Background(), ScanConfig{})
	r := onlyResult(t, coll).Records[0]
	if r.Environment != inventory.NoCategory || r.Attr("MFA") != "" {
		t.Fatalf("expected pool without detail, got %+v", r)
	}
}

func TestCognitoCollector_Denied(t *testing.T) {
	mock := &mockCognitoClient{err: apiError("NotAuthorizedException")}
	coll, _ := NewCognitoCollector(mock, "us-east-1").Collect(context.Background(), ScanConfig{})
	if res := onlyResult(t, coll); res.Status != inventory.StatusDenied {
		t.Fatalf("expected denied, got %+v", res)
	}
}
