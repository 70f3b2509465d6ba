// Package manifest loads contract declarations from YAML.
//
// A manifest names a service and maps contract names to a method, a path
// template and the capabilities the contract declares:
//
//	name: users-api
//	base_url: https://api.example.com
//	contracts:
//	  getUser:
//	    method: get
//	    path: /users/:id
//	    path_parameters: true
//	    result: json
//	  createUser:
//	    method: post
//	    path: /users
//	    body: {description: new user}
//	    result: {encoding: json, content_type: application/json}
//	  events:
//	    method: get
//	    path: /events
//	    query_parameters: true
//	    result: stream
//
// Declare registers the entries on a contract.API in name order so the
// same manifest always produces the same registry.
package manifest
