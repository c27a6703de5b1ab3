package kv

import (
	"strconv"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/js"
	"github.com/teranos/buildamp/model"
)

func store(models []model.Classified) []byte {
	var body []js.Stmt
	var exported []js.Prop

	for _, m := range models {
		if len(body) > 0 {
			body = append(body, js.Blank{})
		}
		body = append(body, js.LineComment{Text: m.Name + ", keys " + "${host}:" + Prefix(m) + ":${key}"})
		for i, fn := range modelFunctions(m) {
			if i > 0 {
				body = append(body, js.Blank{})
			}
			body = append(body, fn.stmt)
			exported = append(exported, js.Prop{Key: fn.name})
		}
	}
	if len(body) > 0 {
		body = append(body, js.Blank{})
	}
	body = append(body, js.Return{Value: js.Object{Props: exported}})

	return js.Format(js.File{
		Header: []string{
			"Tenant-isolated key-value helpers",
			"",
			emit.GeneratedNotice,
		},
		Body: []js.Node{
			js.Func{
				Export:  true,
				Default: true,
				Name:    "createKvFunctions",
				Params:  []string{"kvClient"},
				Body:    body,
			},
			cleanupExpiredKeys(),
			getTenantKeys(),
		},
	})
}

type namedStmt struct {
	name string
	stmt js.Stmt
}

// guarded wraps body in try/catch; failures are logged and mapped to fallback.
func guarded(what, fallback string, body ...js.Stmt) []js.Stmt {
	return []js.Stmt{js.Try{
		Body: body,
		Var:  "error",
		Catch: []js.Stmt{
			js.Do{X: js.Call("console.error", js.Str("Error "+what+":"), js.Code("error"))},
			js.Return{Value: js.Code(fallback)},
		},
	}}
}

func modelFunctions(m model.Classified) []namedStmt {
	name := m.Name
	param := emit.LowerFirst(name)
	tenantKey := js.Var{Name: "tenantKey", Value: js.Code("`${host}:" + Prefix(m) + ":${key}`")}

	fn := func(fname string, params []string, body []js.Stmt) namedStmt {
		return namedStmt{fname, js.Var{Name: fname, Value: js.Arrow{Async: true, Params: params, Body: body}}}
	}

	return []namedStmt{
		fn("set"+name, []string{param, "key", "host", "ttl = " + strconv.Itoa(TTL(m))}, guarded("setting "+name, "false",
			tenantKey,
			js.Do{X: js.Call("await kvClient.setex", js.Code("tenantKey"), js.Code("ttl"), js.Call("JSON.stringify", js.Code(param)))},
			js.Return{Value: js.Code("true")},
		)),
		fn("get"+name, []string{"key", "host"}, guarded("getting "+name, "null",
			tenantKey,
			js.Var{Name: "data", Value: js.Call("await kvClient.get", js.Code("tenantKey"))},
			js.If{Cond: "!data", Then: []js.Stmt{js.Return{Value: js.Code("null")}}},
			js.Return{Value: js.Call("JSON.parse", js.Code("data"))},
		)),
		fn("delete"+name, []string{"key", "host"}, guarded("deleting "+name, "false",
			tenantKey,
			js.Var{Name: "result", Value: js.Call("await kvClient.del", js.Code("tenantKey"))},
			js.Return{Value: js.Code("result === 1")},
		)),
		fn("exists"+name, []string{"key", "host"}, guarded("checking "+name, "false",
			tenantKey,
			js.Var{Name: "result", Value: js.Call("await kvClient.exists", js.Code("tenantKey"))},
			js.Return{Value: js.Code("result === 1")},
		)),
		fn("updateTtl"+name, []string{"key", "ttl", "host"}, guarded("updating "+name+" TTL", "false",
			tenantKey,
			js.Var{Name: "result", Value: js.Call("await kvClient.expire", js.Code("tenantKey"), js.Code("ttl"))},
			js.Return{Value: js.Code("result === 1")},
		)),
	}
}

// cleanupExpiredKeys gives keys without an expiry the default TTL and counts
// keys that vanished while scanning.
func cleanupExpiredKeys() js.Func {
	return js.Func{
		Doc:    []string{"Give keys without an expiry the default TTL; returns the number already gone"},
		Export: true,
		Async:  true,
		Name:   "cleanupExpiredKeys",
		Params: []string{"host", "kvClient"},
		Body: guarded("cleaning up expired keys", "0",
			js.Var{Name: "keys", Value: js.Call("await kvClient.keys", js.Code("`${host}:*`"))},
			js.Var{Kind: "let", Name: "cleaned", Value: js.Code("0")},
			js.ForOf{Var: "key", Iter: "keys", Body: []js.Stmt{
				js.Var{Name: "ttl", Value: js.Call("await kvClient.ttl", js.Code("key"))},
				js.If{Cond: "ttl === -1", Then: []js.Stmt{
					js.Do{X: js.Call("await kvClient.expire", js.Code("key"), js.Code(strconv.Itoa(DefaultTTL)))},
				}},
				js.If{Cond: "ttl === -2", Then: []js.Stmt{
					js.Do{X: js.Code("cleaned++")},
				}},
			}},
			js.Return{Value: js.Code("cleaned")},
		),
	}
}

func getTenantKeys() js.Func {
	return js.Func{
		Doc:    []string{"Every cache key stored for host"},
		Export: true,
		Async:  true,
		Name:   "getTenantKeys",
		Params: []string{"host", "kvClient"},
		Body: guarded("getting tenant keys", "[]",
			js.Return{Value: js.Call("await kvClient.keys", js.Code("`${host}:*`"))},
		),
	}
}
