package aws

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	apigwv2types "github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// APIGatewayV2API is the minimal interface for HTTP and WebSocket APIs.
type APIGatewayV2API interface {
	GetApis(ctx context.Context, input *apigatewayv2.GetApisInput, opts ...func(*apigatewayv2.Options)) (*apigatewayv2.GetApisOutput, error)
	GetRoutes(ctx context.Context, input *apigatewayv2.GetRoutesInput, opts ...func(*apigatewayv2.Options)) (*apigatewayv2.GetRoutesOutput, error)
	GetIntegrations(ctx context.Context, input *apigatewayv2.GetIntegrationsInput, opts ...func(*apigatewayv2.Options)) (*apigatewayv2.GetIntegrationsOutput, error)
	GetAuthorizers(ctx context.Context, input *apigatewayv2.GetAuthorizersInput, opts ...func(*apigatewayv2.Options)) (*apigatewayv2.GetAuthorizersOutput, error)
}

// APIGatewayRESTAPI is the minimal interface for REST APIs.
type APIGatewayRESTAPI interface {
	GetRestApis(ctx context.Context, input *apigateway.GetRestApisInput, opts ...func(*apigateway.Options)) (*apigateway.GetRestApisOutput, error)
	GetResources(ctx context.Context, input *apigateway.GetResourcesInput, opts ...func(*apigateway.Options)) (*apigateway.GetResourcesOutput, error)
	GetAuthorizers(ctx context.Context, input *apigateway.GetAuthorizersInput, opts ...func(*apigateway.Options)) (*apigateway.GetAuthorizersOutput, error)
}

// APIGatewayCollector lists HTTP, WebSocket and REST APIs with their routes
// resolved to integration URIs.
type APIGatewayCollector struct {
	v2     APIGatewayV2API
	rest   APIGatewayRESTAPI
	region string
}

// NewAPIGatewayCollector creates a collector for API Gateway.
func NewAPIGatewayCollector(v2 APIGatewayV2API, rest APIGatewayRESTAPI, region string) *APIGatewayCollector {
	return &APIGatewayCollector{v2: v2, rest: rest, region: region}
}

// Name returns the collector name.
func (c *APIGatewayCollector) Name() string { return "apigateway" }

// Kinds returns the kinds this collector produces.
func (c *APIGatewayCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindAPIGateways}
}

// Collect lists both API generations. The kind is available if either listing succeeds.
func (c *APIGatewayCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	v2Records, v2Err := c.collectV2(ctx)
	if v2Err != nil {
		v2Err = fmt.Errorf("list HTTP APIs: %w", v2Err)
	}
	restRecords, restErr := c.collectREST(ctx)
	if restErr != nil {
		restErr = fmt.Errorf("list REST APIs: %w", restErr)
	}

	merged := inventory.Merge(inventory.KindAPIGateways,
		resultFor(c.region, inventory.KindAPIGateways, v2Records, v2Err),
		resultFor(c.region, inventory.KindAPIGateways, restRecords, restErr),
	)
	return &Collection{Results: []inventory.Result{merged}}, nil
}

func (c *APIGatewayCollector) collectV2(ctx context.Context) ([]inventory.Record, error) {
	var apis []apigwv2types.Api
	var token *string
	for {
		out, err := c.v2.GetApis(ctx, &apigatewayv2.GetApisInput{NextToken: token})
		if err != nil {
			return nil, err
		}
		apis = append(apis, out.Items...)
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}

	records := make([]inventory.Record, 0, len(apis))
	for _, api := range apis {
		id := deref(api.ApiId)
		r := newRecord(inventory.KindAPIGateways, id, deref(api.Name), c.region, inventory.Map(api.Tags))

		var a attrList
		a.add("Protocol", string(api.ProtocolType))
		a.add("Endpoint", deref(api.ApiEndpoint))
		authorizers, err := c.v2Authorizers(ctx, id)
		if err != nil {
			slog.Debug("Failed to get authorizers", "api", id, "error", err)
		}
		a.add("Authorizers", strings.Join(authorizers, ", "))
		r.Attrs = a

		routes, err := c.v2Routes(ctx, id)
		if err != nil {
			slog.Warn("Failed to get routes", "api", id, "region", c.region, "error", err)
		}
		r.Routes = routes
		records = append(records, r)
	}
	return records, nil
}

// v2Routes resolves each route's "integrations/<id>" target to the
// integration URI.
func (c *APIGatewayCollector) v2Routes(ctx context.Context, apiID string) ([]inventory.Route, error) {
	uris := make(map[string]string)
	var token *string
	for {
		out, err := c.v2.GetIntegrations(ctx, &apigatewayv2.GetIntegrationsInput{ApiId: &apiID, NextToken: token})
		if err != nil {
			return nil, fmt.Errorf("get integrations: %w", err)
		}
		for _, in := range out.Items {
			uris[deref(in.IntegrationId)] = deref(in.IntegrationUri)
		}
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}

	var routes []inventory.Route
	token = nil
	for {
		out, err := c.v2.GetRoutes(ctx, &apigatewayv2.GetRoutesInput{ApiId: &apiID, NextToken: token})
		if err != nil {
			return nil, fmt.Errorf("get routes: %w", err)
		}
		for _, rt := range out.Items {
			target := deref(rt.Target)
			if id, ok := strings.CutPrefix(target, "integrations/"); ok {
				if uri, found := uris[id]; found {
					target = uri
				}
			}
			routes = append(routes, inventory.Route{Key: deref(rt.RouteKey), Target: target})
		}
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return routes, nil
}

func (c *APIGatewayCollector) v2Authorizers(ctx context.Context, apiID string) ([]string, error) {
	out, err := c.v2.GetAuthorizers(ctx, &apigatewayv2.GetAuthorizersInput{ApiId: &apiID})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Items))
	for _, au := range out.Items {
		names = append(names, fmt.Sprintf("%s (%s)", deref(au.Name), au.AuthorizerType))
	}
	return names, nil
}

func (c *APIGatewayCollector) collectREST(ctx context.Context) ([]inventory.Record, error) {
	var apis []apigwtypes.RestApi
	paginator := apigateway.NewGetRestApisPaginator(c.rest, &apigateway.GetRestApisInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		apis = append(apis, page.Items...)
	}

	records := make([]inventory.Record, 0, len(apis))
	for _, api := range apis {
		id := deref(api.Id)
		r := newRecord(inventory.KindAPIGateways, id, deref(api.Name), c.region, inventory.Map(api.Tags))

		var a attrList
		a.add("Protocol", "REST")
		a.add("Description", deref(api.Description))
		authorizers, err := c.restAuthorizers(ctx, id)
		if err != nil {
			slog.Debug("Failed to get authorizers", "api", id, "error", err)
		}
		a.add("Authorizers", strings.Join(authorizers, ", "))
		r.Attrs = a

		routes, err := c.restRoutes(ctx, id)
		if err != nil {
			slog.Warn("Failed to get resources", "api", id, "region", c.region, "error", err)
		}
		r.Routes = routes
		records = append(records, r)
	}
	return records, nil
}

// restRoutes flattens resources into "METHOD /path" routes. Resources
// without methods keep their bare path.
func (c *APIGatewayCollector) restRoutes(ctx context.Context, apiID string) ([]inventory.Route, error) {
	var resources []apigwtypes.Resource
	paginator := apigateway.NewGetResourcesPaginator(c.rest, &apigateway.GetResourcesInput{
		RestApiId: &apiID,
		Embed:     []string{"methods"},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		resources = append(resources, page.Items...)
	}
	sort.Slice(resources, func(i, j int) bool { return deref(resources[i].Path) < deref(resources[j].Path) })

	var routes []inventory.Route
	for _, res := range resources {
		path := deref(res.Path)
		if len(res.ResourceMethods) == 0 {
			routes = append(routes, inventory.Route{Key: path})
			continue
		}
		methods := make([]string, 0, len(res.ResourceMethods))
		for m := range res.ResourceMethods {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			route := inventory.Route{Key: m + " " + path}
			if in := res.ResourceMethods[m].MethodIntegration; in != nil {
				route.Target = deref(in.Uri)
			}
			routes = append(routes, route)
		}
	}
	return routes, nil
}

func (c *APIGatewayCollector) restAuthorizers(ctx context.Context, apiID string) ([]string, error) {
	out, err := c.rest.GetAuthorizers(ctx, &apigateway.GetAuthorizersInput{RestApiId: &apiID})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Items))
	for _, au := range out.Items {
		names = append(names, fmt.Sprintf("%s (%s)", deref(au.Name), au.Type))
	}
	return names, nil
}
