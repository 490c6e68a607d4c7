package source

// PolicyHelperSQL creates the get_policies function that exposes pg_policies
// over PostgREST. Run it once in the source project's SQL editor.
const PolicyHelperSQL = `CREATE OR REPLACE FUNCTION get_policies()
RETURNS TABLE (
  schemaname text,
  tablename text,
  policyname text,
  cmd text,
  qual text,
  with_check text
) AS $$
BEGIN
  RETURN QUERY
  SELECT
    p.schemaname::text,
    p.tablename::text,
    p.policyname::text,
    p.cmd::text,
    p.qual::text,
    p.with_check::text
  FROM pg_policies p
  WHERE p.schemaname = 'public';
END;
$$ LANGUAGE plpgsql SECURITY DEFINER;
`
