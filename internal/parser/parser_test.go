package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJavaMethod(t *testing.T) {
	code := `package com.acme.booking;

public class BookingService {
    public Order createOrder(String userId) {
        return repository.save(new Order(userId));
    }
}
`
	p, err := New(LanguageJava)
	require.NoError(t, err)

	f, err := p.ParseFile("com/acme/booking/BookingService.java", []byte(code))
	require.NoError(t, err)

	assert.Equal(t, "com.acme.booking", f.Namespace)
	require.Len(t, f.Units, 1)

	u := f.Units[0]
	assert.Equal(t, "createOrder", u.Name)
	assert.Equal(t, "BookingService", u.OwnerType)
	assert.Equal(t, "createOrder(String userId)", u.Signature)
	assert.Equal(t, 4, u.StartLine)
	assert.Equal(t, 6, u.EndLine)
	assert.Contains(t, u.Text, "repository.save")
}

func TestParseJavaConstructorAndNestedClass(t *testing.T) {
	code := `package com.acme;

public class Outer {
    public Outer() {}

    static class Inner {
        void run() {}
    }
}
`
	p, err := New(LanguageJava)
	require.NoError(t, err)

	f, err := p.ParseFile("Outer.java", []byte(code))
	require.NoError(t, err)

	require.Len(t, f.Units, 2)
	assert.Equal(t, "Outer", f.Units[0].Name)
	assert.Equal(t, "Outer", f.Units[0].OwnerType)
	assert.Equal(t, "run", f.Units[1].Name)
	assert.Equal(t, "Inner", f.Units[1].OwnerType)
}

func TestParseJavaStructuralKinds(t *testing.T) {
	code := `package com.acme;

public class Worker {
    void process(List<String> items) {
        try {
            for (String item : items) {
                if (item == null || item.isEmpty()) {
                    continue;
                }
                handle(item);
            }
        } catch (Exception e) {
            log.error(e);
        }
    }
}
`
	p, err := New(LanguageJava)
	require.NoError(t, err)

	f, err := p.ParseFile("Worker.java", []byte(code))
	require.NoError(t, err)
	require.Len(t, f.Units, 1)

	kinds := map[NodeKind]int{}
	var calls []string
	f.Units[0].Body.Walk(func(n *Node) {
		kinds[n.Kind]++
		if n.Kind == KindCall {
			calls = append(calls, n.Name)
		}
	})

	assert.Equal(t, 1, kinds[KindErrorHandling])
	assert.Equal(t, 1, kinds[KindCatch])
	assert.Equal(t, 1, kinds[KindLoop])
	assert.Equal(t, 1, kinds[KindBranch])
	assert.Equal(t, 1, kinds[KindLogicalOr])
	assert.Contains(t, calls, "handle")
	assert.Contains(t, calls, "isEmpty")
}

func TestParseJavaMalformedUnitSkipped(t *testing.T) {
	code := `package com.acme;

public class Broken {
    void good() {
        run();
    }

    void bad() {
        int x = ;
    }
}
`
	p, err := New(LanguageJava)
	require.NoError(t, err)

	f, err := p.ParseFile("Broken.java", []byte(code))
	require.NoError(t, err)

	// The well-formed unit survives, the malformed one becomes a warning.
	require.NotEmpty(t, f.Warnings)
	for _, u := range f.Units {
		assert.Equal(t, "good", u.Name)
	}
}

func TestParsePythonFunctionsAndMethods(t *testing.T) {
	code := `def top_level(arg):
    return handler(arg)


class OrderService:
    def place(self, user_id):
        if user_id is None:
            raise ValueError("missing user")
        return self.repo.save(user_id)
`
	p, err := New(LanguagePython)
	require.NoError(t, err)

	f, err := p.ParseFile("booking/orders/service.py", []byte(code))
	require.NoError(t, err)

	assert.Equal(t, "booking.orders", f.Namespace)
	require.Len(t, f.Units, 2)

	assert.Equal(t, "top_level", f.Units[0].Name)
	assert.Equal(t, "", f.Units[0].OwnerType)

	m := f.Units[1]
	assert.Equal(t, "place", m.Name)
	assert.Equal(t, "OrderService", m.OwnerType)
	assert.Equal(t, "place(self, user_id)", m.Signature)

	kinds := map[NodeKind]int{}
	m.Body.Walk(func(n *Node) { kinds[n.Kind]++ })
	assert.Equal(t, 1, kinds[KindBranch])
	assert.NotZero(t, kinds[KindCall])
}

func TestParsePythonDecoratedMethod(t *testing.T) {
	code := `class Api:
    @staticmethod
    def ping():
        return "pong"
`
	p, err := New(LanguagePython)
	require.NoError(t, err)

	f, err := p.ParseFile("api.py", []byte(code))
	require.NoError(t, err)

	require.Len(t, f.Units, 1)
	assert.Equal(t, "ping", f.Units[0].Name)
	assert.Equal(t, "Api", f.Units[0].OwnerType)
}

func TestParsePythonNestedFunctionStaysInParent(t *testing.T) {
	code := `def outer():
    def inner():
        pass
    return inner
`
	p, err := New(LanguagePython)
	require.NoError(t, err)

	f, err := p.ParseFile("util.py", []byte(code))
	require.NoError(t, err)

	require.Len(t, f.Units, 1)
	assert.Equal(t, "outer", f.Units[0].Name)
}

func TestDetectLanguage(t *testing.T) {
	lang, ok := DetectLanguage("src/main/App.java")
	assert.True(t, ok)
	assert.Equal(t, LanguageJava, lang)

	lang, ok = DetectLanguage("scripts/run.py")
	assert.True(t, ok)
	assert.Equal(t, LanguagePython, lang)

	_, ok = DetectLanguage("README.md")
	assert.False(t, ok)
}

func TestNamespaceFromPath(t *testing.T) {
	assert.Equal(t, "booking.orders", namespaceFromPath("booking/orders/service.py"))
	assert.Equal(t, "", namespaceFromPath("service.py"))
}
