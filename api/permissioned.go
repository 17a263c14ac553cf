package api

import (
	"context"
	"reflect"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/types"
)

const (
	PermRead  auth.Permission = "read" // default
	PermWrite auth.Permission = "write"
	PermSign  auth.Permission = "sign"  // Use wallet keys for signing
	PermAdmin auth.Permission = "admin" // Manage permissions
)

var AllPermissions = []auth.Permission{PermRead, PermWrite, PermSign, PermAdmin}
var DefaultPerms = []auth.Permission{PermRead}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// PermissionedFullAPI is the api served over rpc: calls are checked against
// the perm tags and returned errors carry their code on the wire.
func PermissionedFullAPI(a FullNode) FullNode {
	var out FullNodeStruct
	permissionedProxy(a, &out.CommonStruct.Internal)
	permissionedProxy(a, &out.Internal)
	return &out
}

func permissionedProxy(in interface{}, out interface{}) {
	rint := reflect.ValueOf(out).Elem()
	ra := reflect.ValueOf(in)

	for f := 0; f < rint.NumField(); f++ {
		field := rint.Type().Field(f)
		requiredPerm := auth.Permission(field.Tag.Get("perm"))
		if !validPerm(requiredPerm) {
			panic("missing or unknown 'perm' tag on " + field.Name)
		}

		fn := ra.MethodByName(field.Name)

		rint.Field(f).Set(reflect.MakeFunc(field.Type, func(args []reflect.Value) []reflect.Value {
			ctx := args[0].Interface().(context.Context)
			if !auth.HasPerm(ctx, DefaultPerms, requiredPerm) {
				err := xerrors.Errorf("missing permission to invoke '%s' (need '%s'): %w", field.Name, requiredPerm, types.ErrUnauthorized)
				return withError(field.Type, nil, err)
			}

			res := fn.Call(args)
			if err, ok := res[len(res)-1].Interface().(error); ok && err != nil {
				return withError(field.Type, res, err)
			}
			return res
		}))
	}
}

func validPerm(p auth.Permission) bool {
	for _, perm := range AllPermissions {
		if p == perm {
			return true
		}
	}
	return false
}

// withError replaces the error result with its wire form; a nil res means
// zero values for the rest.
func withError(ft reflect.Type, res []reflect.Value, err error) []reflect.Value {
	if res == nil {
		res = make([]reflect.Value, ft.NumOut())
		for i := range res {
			res[i] = reflect.Zero(ft.Out(i))
		}
	}

	werr := xerrors.New(types.ErrorToWire(err))
	res[len(res)-1] = reflect.ValueOf(&werr).Elem()
	return res
}

// DecodeErrors wraps the rpc client funcs in out so the errors they return
// match the sentinels the server side returned.
func DecodeErrors(out *FullNodeStruct) {
	decodeProxy(&out.CommonStruct.Internal)
	decodeProxy(&out.Internal)
}

func decodeProxy(out interface{}) {
	rint := reflect.ValueOf(out).Elem()

	for f := 0; f < rint.NumField(); f++ {
		field := rint.Field(f)
		ft := field.Type()
		if field.IsNil() || ft.NumOut() == 0 || ft.Out(ft.NumOut()-1) != errorType {
			continue
		}

		call := reflect.ValueOf(field.Interface())
		field.Set(reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
			res := call.Call(args)
			if err, ok := res[len(res)-1].Interface().(error); ok && err != nil {
				derr := types.ErrorFromWire(err)
				res[len(res)-1] = reflect.ValueOf(&derr).Elem()
			}
			return res
		}))
	}
}
