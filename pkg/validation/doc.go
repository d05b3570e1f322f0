// Package validation checks incoming requests against a matched OpenAPI
// operation before a mock response is synthesized.
//
// A Pipeline runs five steps in a fixed order and stops at the first failure:
//
//   - auth: the operation's security requirements (apiKey, http basic and
//     bearer, oauth2, openIdConnect, mutualTLS)
//   - header: header and cookie parameters
//   - path: path parameters extracted by the resolver
//   - query: query parameters in form, spaceDelimited, pipeDelimited and
//     deepObject styles
//   - body: the request body for its content type
//
// Parameter values arrive as strings and are coerced to the types their
// schemas declare before being checked. All schemas are compiled with
// github.com/santhosh-tekuri/jsonschema/v5 when the pipeline is built, so a
// broken schema is reported at load time rather than per request.
//
// # Usage
//
//	p, err := validation.New(doc, validation.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	if verr := p.Run(ctx, op, &validation.Request{Request: r, PathParams: params}); verr != nil {
//	    // verr.Status, verr.Step, verr.Message
//	}
//
// Failures are *Error values carrying the Kind, the step name, the HTTP
// status and the individual field errors.
package validation
